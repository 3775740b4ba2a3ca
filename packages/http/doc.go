// Package http issues composed requests and turns their responses into
// descriptors for display.
//
// It wraps the standard library's http package with:
//   - Configurable timeouts, redirect handling, TLS validation and proxies
//   - Content-Encoding (gzip, deflate, br, zstd) and charset decoding
//   - A Dispatcher that times each call and classifies failures
//   - A Normalizer that pretty-prints JSON bodies and measures sizes
package http
