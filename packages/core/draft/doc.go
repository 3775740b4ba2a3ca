// Package draft defines the request model edited by hitdraft.
//
// A Draft is the unit of "what will be sent": a method, a URL, ordered
// header and query parameter entries, and a raw body. Saved wraps a draft
// snapshot with a name and a save timestamp.
//
// Entries are ordered and index-addressed. Disabled entries and entries
// with an empty key stay in the draft so that a saved request reloads
// exactly as it was edited; filtering happens when the request is composed.
package draft
