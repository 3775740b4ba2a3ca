package http

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/net/html/charset"
)

// decodeBody undoes Content-Encoding and converts the text to UTF-8 when
// the content type names another charset.
func decodeBody(body []byte, contentEncoding, contentType string) ([]byte, error) {
	decoded, err := decompress(body, contentEncoding)
	if err != nil {
		return nil, err
	}
	return toUTF8(decoded, contentType)
}

// decompress applies the listed encodings in reverse order.
func decompress(body []byte, contentEncoding string) ([]byte, error) {
	if len(body) == 0 {
		return body, nil
	}

	encodings := strings.Split(contentEncoding, ",")
	for i := len(encodings) - 1; i >= 0; i-- {
		enc := strings.ToLower(strings.TrimSpace(encodings[i]))
		var r io.Reader
		src := bytes.NewReader(body)

		switch enc {
		case "", "identity":
			continue
		case "gzip", "x-gzip":
			zr, err := gzip.NewReader(src)
			if err != nil {
				return nil, fmt.Errorf("decoding gzip response body: %w", err)
			}
			defer zr.Close()
			r = zr
		case "deflate":
			zr, err := zlib.NewReader(src)
			if err != nil {
				return nil, fmt.Errorf("decoding deflate response body: %w", err)
			}
			defer zr.Close()
			r = zr
		case "br":
			r = brotli.NewReader(src)
		case "zstd":
			zr, err := zstd.NewReader(src)
			if err != nil {
				return nil, fmt.Errorf("decoding zstd response body: %w", err)
			}
			defer zr.Close()
			r = zr
		default:
			return nil, fmt.Errorf("unsupported content encoding %q", enc)
		}

		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("decoding %s response body: %w", enc, err)
		}
		body = out
	}
	return body, nil
}

func toUTF8(body []byte, contentType string) ([]byte, error) {
	if len(body) == 0 || contentType == "" {
		return body, nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body, nil
	}
	label := strings.ToLower(strings.TrimSpace(params["charset"]))
	switch label {
	case "", "utf-8", "utf8", "us-ascii", "ascii":
		return body, nil
	}

	r, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		// Unknown labels are shown as-is
		return body, nil
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("converting %s response body: %w", label, err)
	}
	return out, nil
}
