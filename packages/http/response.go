package http

import (
	"strings"
)

// RawResponse is the transport's view of a response before normalization.
type RawResponse struct {
	StatusCode  int
	StatusText  string
	Headers     map[string]string
	ContentType string
	Body        []byte
	// WireSize counts the body bytes received before content decoding.
	WireSize int64
}

func (r *RawResponse) BodyString() string {
	return string(r.Body)
}

func (r *RawResponse) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *RawResponse) IsJSON() bool {
	ct := r.ContentType
	if ct == "" {
		ct = r.Header("Content-Type")
	}
	return strings.Contains(ct, "application/json")
}
