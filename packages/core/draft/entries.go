package draft

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one candidate query parameter or header row.
type Entry struct {
	Key     string `json:"key" yaml:"key"`
	Value   string `json:"value" yaml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// UnmarshalYAML treats a missing enabled field as true, since hand-written
// draft files rarely spell it out.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Key     string `yaml:"key"`
		Value   string `yaml:"value"`
		Enabled *bool  `yaml:"enabled"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	e.Key = raw.Key
	e.Value = raw.Value
	e.Enabled = raw.Enabled == nil || *raw.Enabled
	return nil
}

// Entries is an ordered, index-addressed list of entries.
type Entries []Entry

// Add appends an empty enabled entry and returns its index.
func (es *Entries) Add() int {
	*es = append(*es, Entry{Enabled: true})
	return len(*es) - 1
}

// Append appends an enabled entry with the given key and value.
func (es *Entries) Append(key, value string) int {
	*es = append(*es, Entry{Key: key, Value: value, Enabled: true})
	return len(*es) - 1
}

func (es Entries) SetKey(i int, key string) error {
	if err := es.checkIndex(i); err != nil {
		return err
	}
	es[i].Key = key
	return nil
}

func (es Entries) SetValue(i int, value string) error {
	if err := es.checkIndex(i); err != nil {
		return err
	}
	es[i].Value = value
	return nil
}

func (es Entries) SetEnabled(i int, enabled bool) error {
	if err := es.checkIndex(i); err != nil {
		return err
	}
	es[i].Enabled = enabled
	return nil
}

// Remove deletes the entry at i, keeping the order of the rest.
func (es *Entries) Remove(i int) error {
	if err := es.checkIndex(i); err != nil {
		return err
	}
	*es = append((*es)[:i], (*es)[i+1:]...)
	return nil
}

// Clone returns a copy that shares no backing array with es.
func (es Entries) Clone() Entries {
	if es == nil {
		return nil
	}
	out := make(Entries, len(es))
	copy(out, es)
	return out
}

func (es Entries) checkIndex(i int) error {
	if i < 0 || i >= len(es) {
		return &InputError{Field: "index", Message: fmt.Sprintf("entry %d out of range (have %d)", i, len(es))}
	}
	return nil
}

// ParseEntry splits "key<sep>value" into an enabled entry. Whitespace
// around the key and value is trimmed.
func ParseEntry(s, sep string) (Entry, error) {
	key, value, found := strings.Cut(s, sep)
	if !found {
		return Entry{}, &InputError{Field: "entry", Message: fmt.Sprintf("expected key%svalue, got %q", sep, s)}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Entry{}, &InputError{Field: "entry", Message: fmt.Sprintf("empty key in %q", s)}
	}
	return Entry{Key: key, Value: strings.TrimSpace(value), Enabled: true}, nil
}
