// Package profile sends one composed request repeatedly and summarizes the
// latencies.
//
// Sends are spread over a bounded number of workers and optionally paced
// by a token-bucket rate limit. Latencies are recorded in microseconds in
// an HDR histogram covering 1µs to 60s with 3 significant digits.
package profile
