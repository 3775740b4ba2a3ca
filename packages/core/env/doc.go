// Package env handles variable interpolation for hitdraft drafts.
//
// It provides functionality for:
//   - Loading .env files
//   - Variable interpolation using {{variable}} syntax
//   - OS environment lookups with {{$NAME}}
//   - Built-in function evaluation with {{$uuid()}}, {{$timestamp()}} and friends
package env
