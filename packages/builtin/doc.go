// Package builtin provides the functions available as {{$name(args)}} in
// draft fields: timestamps, identifiers, random values and encoders.
package builtin
