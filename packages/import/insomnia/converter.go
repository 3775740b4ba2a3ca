// Package insomnia converts Insomnia exports into hitdraft drafts.
package insomnia

import (
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"github.com/goccy/go-json"
)

var (
	prefixedVar = regexp.MustCompile(`\{\{\s*_\.(\w+)\s*\}\}`)
	spacedVar   = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)
)

// Converter converts Insomnia exports to drafts.
type Converter struct {
	keepDisabled bool
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithDisabled keeps disabled headers and parameters as disabled rows
// instead of dropping them. It is on by default.
func WithDisabled(keep bool) Option {
	return func(c *Converter) {
		c.keepDisabled = keep
	}
}

// NewConverter creates a new Insomnia converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		keepDisabled: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Export represents an Insomnia export file.
type Export struct {
	Type         string     `json:"_type"`
	ExportFormat int        `json:"__export_format"`
	Resources    []Resource `json:"resources"`
}

// Resource represents an Insomnia resource (request, folder, environment, etc).
type Resource struct {
	ID             string      `json:"_id"`
	Type           string      `json:"_type"`
	ParentID       string      `json:"parentId"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	Method         string      `json:"method,omitempty"`
	URL            string      `json:"url,omitempty"`
	Headers        []Header    `json:"headers,omitempty"`
	Body           *Body       `json:"body,omitempty"`
	Parameters     []Parameter `json:"parameters,omitempty"`
	Authentication *Auth       `json:"authentication,omitempty"`
}

// Header represents an Insomnia header.
type Header struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Body represents an Insomnia request body.
type Body struct {
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Parameter represents an Insomnia query parameter.
type Parameter struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Auth represents Insomnia authentication.
type Auth struct {
	Type     string `json:"type"`
	Disabled bool   `json:"disabled,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
}

// Request is one converted request. Name includes the folder path.
type Request struct {
	Name  string
	Draft draft.Draft
}

// ConvertFile converts an Insomnia export file.
func (c *Converter) ConvertFile(path string) ([]Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return c.Convert(data)
}

// Convert converts Insomnia export JSON into drafts in export order.
func (c *Converter) Convert(data []byte) ([]Request, error) {
	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse Insomnia export: %w", err)
	}

	folders := make(map[string]Resource)
	for _, res := range export.Resources {
		if res.Type == "request_group" {
			folders[res.ID] = res
		}
	}

	var out []Request
	for _, res := range export.Resources {
		if res.Type != "request" {
			continue
		}
		d, err := c.convertRequest(res)
		if err != nil {
			return nil, fmt.Errorf("request %q: %w", res.Name, err)
		}
		name := res.Name
		if folder := folderPath(res.ParentID, folders); folder != "" {
			name = folder + " - " + name
		}
		out = append(out, Request{Name: name, Draft: d})
	}
	return out, nil
}

func (c *Converter) convertRequest(res Resource) (draft.Draft, error) {
	method := draft.MethodGet
	if res.Method != "" {
		m, err := draft.ParseMethod(res.Method)
		if err != nil {
			return draft.Draft{}, err
		}
		method = m
	}

	d := draft.Draft{
		Method: method,
		URL:    convertVariable(res.URL),
	}

	for _, p := range res.Parameters {
		if p.Disabled && !c.keepDisabled {
			continue
		}
		d.QueryParams = append(d.QueryParams, draft.Entry{
			Key:     p.Name,
			Value:   convertVariable(p.Value),
			Enabled: !p.Disabled,
		})
	}

	for _, h := range res.Headers {
		if h.Disabled && !c.keepDisabled {
			continue
		}
		d.Headers = append(d.Headers, draft.Entry{
			Key:     h.Name,
			Value:   convertVariable(h.Value),
			Enabled: !h.Disabled,
		})
	}

	if h, ok := authHeader(res.Authentication); ok {
		d.Headers = append(d.Headers, h)
	}

	if res.Body != nil && res.Body.Text != "" {
		d.Body = convertVariable(res.Body.Text)
		if res.Body.MimeType != "" && !hasHeader(d.Headers, "Content-Type") {
			d.Headers = append(d.Headers, draft.Entry{Key: "Content-Type", Value: res.Body.MimeType, Enabled: true})
		}
	}

	return d, nil
}

// authHeader turns basic and bearer authentication into an Authorization
// header row. Other schemes are dropped.
func authHeader(auth *Auth) (draft.Entry, bool) {
	if auth == nil {
		return draft.Entry{}, false
	}
	switch auth.Type {
	case "basic":
		if auth.Username == "" {
			return draft.Entry{}, false
		}
		creds := convertVariable(auth.Username) + ":" + convertVariable(auth.Password)
		return draft.Entry{
			Key:     "Authorization",
			Value:   "Basic " + base64.StdEncoding.EncodeToString([]byte(creds)),
			Enabled: !auth.Disabled,
		}, true
	case "bearer":
		if auth.Token == "" {
			return draft.Entry{}, false
		}
		prefix := auth.Prefix
		if prefix == "" {
			prefix = "Bearer"
		}
		return draft.Entry{
			Key:     "Authorization",
			Value:   prefix + " " + convertVariable(auth.Token),
			Enabled: !auth.Disabled,
		}, true
	}
	return draft.Entry{}, false
}

func hasHeader(es draft.Entries, name string) bool {
	for _, e := range es {
		if strings.EqualFold(e.Key, name) {
			return true
		}
	}
	return false
}

func folderPath(parentID string, folders map[string]Resource) string {
	var path []string
	currentID := parentID

	for {
		folder, exists := folders[currentID]
		if !exists {
			break
		}
		path = append([]string{folder.Name}, path...)
		currentID = folder.ParentID
	}

	return strings.Join(path, "/")
}

// convertVariable converts Insomnia variable syntax to hitdraft syntax.
// Insomnia uses {{ _.variableName }} or {{ variableName }}
func convertVariable(s string) string {
	s = prefixedVar.ReplaceAllString(s, "{{$1}}")
	return spacedVar.ReplaceAllString(s, "{{$1}}")
}
