// Package postman converts Postman v2.1 collections into hitdraft drafts.
package postman

import (
	"encoding/base64"
	"fmt"
	neturl "net/url"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"github.com/goccy/go-json"
)

// Collection represents a Postman Collection v2.1 structure
type Collection struct {
	Info Info   `json:"info"`
	Item []Item `json:"item"`
}

type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Schema      string `json:"schema"`
}

type Item struct {
	Name        string   `json:"name"`
	Request     *Request `json:"request,omitempty"`
	Item        []Item   `json:"item,omitempty"` // For folders
	Description string   `json:"description,omitempty"`
}

type Request struct {
	Method string `json:"method"`
	Header []KV   `json:"header,omitempty"`
	Body   *Body  `json:"body,omitempty"`
	URL    URL    `json:"url"`
	Auth   *Auth  `json:"auth,omitempty"`
}

type KV struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

type Body struct {
	Mode       string `json:"mode"`
	Raw        string `json:"raw,omitempty"`
	URLEncoded []KV   `json:"urlencoded,omitempty"`
}

// URL accepts both the object form and a bare string.
type URL struct {
	Raw   string   `json:"raw"`
	Host  []string `json:"host,omitempty"`
	Path  []string `json:"path,omitempty"`
	Query []KV     `json:"query,omitempty"`
}

func (u *URL) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*u = URL{Raw: raw}
		return nil
	}
	type plain URL
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = URL(p)
	return nil
}

type Auth struct {
	Type   string `json:"type"`
	Bearer []KV   `json:"bearer,omitempty"`
	Basic  []KV   `json:"basic,omitempty"`
	APIKey []KV   `json:"apikey,omitempty"`
}

// Named is one converted request. Name includes the folder path.
type Named struct {
	Name  string
	Draft draft.Draft
}

// ConvertFile converts a Postman collection file.
func ConvertFile(path string) ([]Named, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Convert(data)
}

// Convert converts Postman collection JSON into drafts, depth first.
func Convert(data []byte) ([]Named, error) {
	var collection Collection
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("failed to parse Postman collection: %w", err)
	}

	var out []Named
	if err := convertItems(&out, collection.Item, ""); err != nil {
		return nil, err
	}
	return out, nil
}

func convertItems(out *[]Named, items []Item, prefix string) error {
	for _, item := range items {
		// If it's a folder (has nested items), recurse
		if len(item.Item) > 0 {
			next := item.Name
			if prefix != "" {
				next = prefix + "/" + item.Name
			}
			if err := convertItems(out, item.Item, next); err != nil {
				return err
			}
			continue
		}

		if item.Request == nil {
			continue
		}

		d, err := convertRequest(item.Request)
		if err != nil {
			return fmt.Errorf("request %q: %w", item.Name, err)
		}
		name := item.Name
		if prefix != "" {
			name = prefix + " - " + name
		}
		*out = append(*out, Named{Name: name, Draft: d})
	}
	return nil
}

func convertRequest(req *Request) (draft.Draft, error) {
	method := draft.MethodGet
	if req.Method != "" {
		m, err := draft.ParseMethod(req.Method)
		if err != nil {
			return draft.Draft{}, err
		}
		method = m
	}

	// The query lives in its own rows, so the base URL keeps only the path
	base, _, _ := strings.Cut(req.URL.Raw, "?")
	d := draft.Draft{
		Method: method,
		URL:    convertVariable(base),
	}

	query := req.URL.Query
	if len(query) == 0 {
		query = rawQuery(req.URL.Raw)
	}
	for _, q := range query {
		d.QueryParams = append(d.QueryParams, draft.Entry{
			Key:     q.Key,
			Value:   convertVariable(q.Value),
			Enabled: !q.Disabled,
		})
	}

	for _, h := range req.Header {
		d.Headers = append(d.Headers, draft.Entry{
			Key:     h.Key,
			Value:   convertVariable(h.Value),
			Enabled: !h.Disabled,
		})
	}
	if h, ok := authHeader(req.Auth); ok {
		d.Headers = append(d.Headers, h)
	}

	if req.Body != nil {
		switch req.Body.Mode {
		case "raw":
			d.Body = convertVariable(req.Body.Raw)
		case "urlencoded":
			var parts []string
			for _, kv := range req.Body.URLEncoded {
				if kv.Disabled {
					continue
				}
				parts = append(parts, kv.Key+"="+convertVariable(kv.Value))
			}
			if len(parts) > 0 {
				d.Body = strings.Join(parts, "&")
				d.Headers = append(d.Headers, draft.Entry{
					Key:     "Content-Type",
					Value:   "application/x-www-form-urlencoded",
					Enabled: true,
				})
			}
		}
	}

	return d, nil
}

// rawQuery splits the query of a raw URL. Values are decoded where possible
// and kept verbatim otherwise, so placeholders survive.
func rawQuery(raw string) []KV {
	_, query, ok := strings.Cut(raw, "?")
	if !ok || query == "" {
		return nil
	}
	var out []KV
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		if dk, err := neturl.QueryUnescape(k); err == nil {
			k = dk
		}
		if dv, err := neturl.QueryUnescape(v); err == nil {
			v = dv
		}
		out = append(out, KV{Key: k, Value: v})
	}
	return out
}

func authHeader(auth *Auth) (draft.Entry, bool) {
	if auth == nil {
		return draft.Entry{}, false
	}
	switch auth.Type {
	case "bearer":
		if token := lookup(auth.Bearer, "token"); token != "" {
			return draft.Entry{Key: "Authorization", Value: "Bearer " + convertVariable(token), Enabled: true}, true
		}
	case "basic":
		user := lookup(auth.Basic, "username")
		if user == "" {
			return draft.Entry{}, false
		}
		creds := user + ":" + lookup(auth.Basic, "password")
		return draft.Entry{
			Key:     "Authorization",
			Value:   "Basic " + base64.StdEncoding.EncodeToString([]byte(creds)),
			Enabled: true,
		}, true
	case "apikey":
		if lookup(auth.APIKey, "in") == "query" {
			return draft.Entry{}, false
		}
		if key := lookup(auth.APIKey, "key"); key != "" {
			return draft.Entry{Key: key, Value: convertVariable(lookup(auth.APIKey, "value")), Enabled: true}, true
		}
	}
	return draft.Entry{}, false
}

func lookup(kvs []KV, key string) string {
	for _, kv := range kvs {
		if kv.Key == key {
			return kv.Value
		}
	}
	return ""
}

var dynamicVariables = strings.NewReplacer(
	"{{$guid}}", "{{$uuid()}}",
	"{{$randomUUID}}", "{{$uuid()}}",
	"{{$timestamp}}", "{{$timestamp()}}",
	"{{$isoTimestamp}}", "{{$now()}}",
	"{{$randomInt}}", "{{$random(0, 1000)}}",
)

// convertVariable maps Postman dynamic variables onto builtin functions.
// Plain {{variable}} syntax is shared and left alone.
func convertVariable(s string) string {
	return dynamicVariables.Replace(s)
}
