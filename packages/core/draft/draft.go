package draft

import (
	"strings"
	"time"
)

// Draft is the request currently being edited.
type Draft struct {
	Method      Method  `json:"method" yaml:"method"`
	URL         string  `json:"url" yaml:"url"`
	Headers     Entries `json:"headers" yaml:"headers"`
	QueryParams Entries `json:"queryParams" yaml:"queryParams"`
	Body        string  `json:"body" yaml:"body,omitempty"`
}

// New returns a GET draft with one blank header row and one blank query row.
func New() Draft {
	return Draft{
		Method:      MethodGet,
		Headers:     Entries{{Enabled: true}},
		QueryParams: Entries{{Enabled: true}},
	}
}

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	out := d
	out.Headers = d.Headers.Clone()
	out.QueryParams = d.QueryParams.Clone()
	return out
}

// HasBody reports whether the body has any non-whitespace content.
func (d Draft) HasBody() bool {
	return strings.TrimSpace(d.Body) != ""
}

// SendsBody reports whether the body will be attached at dispatch time.
func (d Draft) SendsBody() bool {
	return d.Method.AllowsBody() && d.HasBody()
}

// Saved is an immutable snapshot of a draft taken at save time.
type Saved struct {
	Name      string `json:"name" yaml:"name"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
	Draft     `yaml:",inline"`
}

// NewSaved snapshots d under name. A blank name is rejected.
func NewSaved(name string, d Draft, at time.Time) (Saved, error) {
	s := Saved{
		Name:      name,
		Timestamp: at.UnixMilli(),
		Draft:     d.Clone(),
	}
	if err := s.Validate(); err != nil {
		return Saved{}, err
	}
	return s, nil
}

// Validate checks the invariants a store relies on.
func (s Saved) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &InputError{Field: "name", Message: "please enter a name for this request"}
	}
	return nil
}

// Clone returns a deep copy of s.
func (s Saved) Clone() Saved {
	out := s
	out.Draft = s.Draft.Clone()
	return out
}
