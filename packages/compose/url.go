package compose

import (
	"strings"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
)

// Compose builds the request URL from baseURL and the enabled params.
//
// Any query string already present on baseURL is dropped; only the part
// before the first '?' is kept. Params with an empty key are skipped,
// params with an empty value are sent as "key=". Order and duplicates are
// preserved.
func Compose(baseURL string, params draft.Entries) string {
	base, _, _ := strings.Cut(baseURL, "?")

	var sb strings.Builder
	for _, p := range params {
		if !p.Enabled || p.Key == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(EncodeComponent(p.Key))
		sb.WriteByte('=')
		sb.WriteString(EncodeComponent(p.Value))
	}

	if sb.Len() == 0 {
		return base
	}
	return base + "?" + sb.String()
}

const upperHex = "0123456789ABCDEF"

// EncodeComponent percent-encodes s the way URI components are encoded in
// browsers: every UTF-8 byte outside A-Z a-z 0-9 and -_.!~*'() is escaped.
func EncodeComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	buf := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			buf = append(buf, c)
			continue
		}
		buf = append(buf, '%', upperHex[c>>4], upperHex[c&15])
	}
	return string(buf)
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
