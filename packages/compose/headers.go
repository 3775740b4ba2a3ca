package compose

import (
	"strings"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
)

const (
	HeaderContentType  = "Content-Type"
	DefaultContentType = "application/json"
)

// Match selects how the assembler detects a user-supplied Content-Type.
type Match int

const (
	// MatchExact only recognises the key spelled exactly "Content-Type".
	MatchExact Match = iota
	// MatchFold recognises any casing, e.g. "content-type".
	MatchFold
)

// ParseMatch maps a config value to a Match. Unknown values mean MatchExact.
func ParseMatch(s string) Match {
	if strings.EqualFold(strings.TrimSpace(s), "fold") {
		return MatchFold
	}
	return MatchExact
}

// Assemble merges the enabled headers into a single map, using MatchExact
// for the default Content-Type rule.
func Assemble(headers draft.Entries, method draft.Method, hasBody bool) map[string]string {
	return AssembleWith(headers, method, hasBody, MatchExact)
}

// AssembleWith merges headers into a map. Entries need to be enabled and
// have both a key and a value; later duplicates win. When method carries a
// body, hasBody is true, and no entry supplied a Content-Type under match,
// Content-Type: application/json is added.
func AssembleWith(headers draft.Entries, method draft.Method, hasBody bool, match Match) map[string]string {
	out := make(map[string]string, len(headers)+1)
	for _, h := range headers {
		if !h.Enabled || h.Key == "" || h.Value == "" {
			continue
		}
		out[h.Key] = h.Value
	}

	if method.AllowsBody() && hasBody && !hasContentType(out, match) {
		out[HeaderContentType] = DefaultContentType
	}
	return out
}

func hasContentType(headers map[string]string, match Match) bool {
	if _, ok := headers[HeaderContentType]; ok {
		return true
	}
	if match != MatchFold {
		return false
	}
	for k := range headers {
		if strings.EqualFold(k, HeaderContentType) {
			return true
		}
	}
	return false
}
