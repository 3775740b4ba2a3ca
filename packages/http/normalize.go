package http

import (
	"bytes"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var (
	errInvalidJSON = errors.New("malformed JSON")
	errEmptyBody   = errors.New("empty body")
)

// Normalize converts a raw response into the success variant of a
// Descriptor. JSON bodies are re-indented for display; a JSON content
// type with a body that does not parse yields a *DecodeError. Bytes that
// are not valid UTF-8 become U+FFFD, so Size counts the text as displayed.
func Normalize(raw *RawResponse, elapsed time.Duration) (Descriptor, error) {
	data := strings.ToValidUTF8(raw.BodyString(), "\uFFFD")
	if raw.IsJSON() {
		pretty, err := PrettyJSON(raw.Body)
		if err != nil {
			return Descriptor{}, &DecodeError{Message: "invalid JSON response body: " + err.Error(), Err: err}
		}
		data = strings.ToValidUTF8(pretty, "\uFFFD")
	}

	headers := make(map[string]string, len(raw.Headers))
	for k, v := range raw.Headers {
		headers[k] = v
	}

	return Descriptor{
		Status:     raw.StatusCode,
		StatusText: raw.StatusText,
		Time:       elapsed.Milliseconds(),
		Size:       len(data),
		WireSize:   raw.WireSize,
		Data:       data,
		Headers:    headers,
	}, nil
}

// PrettyJSON validates body and indents it by two spaces, keeping keys in
// the order the server sent them.
func PrettyJSON(body []byte) (string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return "", errEmptyBody
	}
	if !json.Valid(body) {
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			return "", err
		}
		return "", errInvalidJSON
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
