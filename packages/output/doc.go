// Package output renders dispatch results, saved requests and profile
// reports.
//
// Supported output formats:
//   - Console: colored terminal output with method and status badges
//   - JSON: one indented document per result, for scripting
//
// Both formatters implement Formatter. Response bodies can be narrowed with
// a gjson path via WithFilter or JSONWithFilter.
package output
