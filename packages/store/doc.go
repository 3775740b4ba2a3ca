// Package store keeps saved requests.
//
// A Store is an ordered list of draft.Saved snapshots addressed by their
// zero-based position in save order. Three backends are provided:
//
//   - MemoryStore keeps requests for the life of the process
//   - SQLiteStore persists them in a SQLite database
//   - FileStore persists them in a YAML file rewritten atomically
//
// Every backend hands out deep copies, so editing a loaded draft never
// changes what is stored.
package store
