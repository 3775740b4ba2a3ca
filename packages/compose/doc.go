// Package compose merges the structured state of a draft into the pieces
// of one outbound request: the final URL and the header set.
//
// Both operations are total. Malformed URLs and odd header names pass
// through untouched; validation belongs to the dispatcher.
package compose
