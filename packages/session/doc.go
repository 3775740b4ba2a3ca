// Package session owns the request being edited and the last response
// shown for it.
//
// Every send takes a new generation from the result Cell. A result is
// applied only if no newer send began after it, so a slow response can
// never replace a faster, more recent one.
package session
