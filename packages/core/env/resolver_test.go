package env

import (
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitdraft/packages/builtin"
	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"github.com/stretchr/testify/assert"
)

func fakeEnv(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestResolver_Resolve(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := NewResolver(
		WithLookupEnv(fakeEnv(map[string]string{"TOKEN": "s3cret"})),
		WithRegistry(builtin.NewRegistry(builtin.WithClock(func() time.Time { return at }))),
	)
	r.SetVariables(map[string]any{"host": "api.test", "port": 8080})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no placeholders", "plain text", "plain text"},
		{"variable", "https://{{host}}/v1", "https://api.test/v1"},
		{"non-string variable", "{{host}}:{{ port }}", "api.test:8080"},
		{"env var", "Bearer {{$TOKEN}}", "Bearer s3cret"},
		{"function with dollar", "{{$date()}}", "2026-01-02"},
		{"function without dollar", "{{timestamp()}}", "1767323045"},
		{"unknown variable kept", "{{missing}}", "{{missing}}"},
		{"unknown env kept", "{{$MISSING}}", "{{$MISSING}}"},
		{"unknown function kept", "{{$nope()}}", "{{$nope()}}"},
		{"failing function kept", "{{random(x, 1)}}", "{{random(x, 1)}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.input))
		})
	}
}

func TestResolver_Unresolved(t *testing.T) {
	r := NewResolver(WithLookupEnv(fakeEnv(nil)))
	r.SetVariable("foo", "bar")

	tests := []struct {
		input string
		want  []string
	}{
		{"hello world", []string{}},
		{"{{foo}}", []string{}},
		{"{{foo}} {{bar}} {{bar}}", []string{"bar"}},
		{"{{$HOME_NOT_SET}} {{uuid()}}", []string{"$HOME_NOT_SET"}},
		{"{{zeta}} {{alpha}}", []string{"alpha", "zeta"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Unresolved(tt.input))
		})
	}
}

func TestResolver_ResolveDraft(t *testing.T) {
	r := NewResolver(WithLookupEnv(fakeEnv(map[string]string{"TOKEN": "t"})))
	r.SetVariables(map[string]any{"host": "api.test", "id": "42", "hdr": "X-Id"})

	d := draft.Draft{
		Method:      draft.MethodPost,
		URL:         "https://{{host}}/items",
		Headers:     draft.Entries{{Key: "{{hdr}}", Value: "{{id}}", Enabled: true}, {Key: "Authorization", Value: "Bearer {{$TOKEN}}", Enabled: true}},
		QueryParams: draft.Entries{{Key: "id", Value: "{{id}}", Enabled: false}},
		Body:        `{"id":"{{id}}"}`,
	}

	got := r.ResolveDraft(d)

	assert.Equal(t, "https://api.test/items", got.URL)
	assert.Equal(t, draft.Entry{Key: "X-Id", Value: "42", Enabled: true}, got.Headers[0])
	assert.Equal(t, "Bearer t", got.Headers[1].Value)
	assert.Equal(t, draft.Entry{Key: "id", Value: "42", Enabled: false}, got.QueryParams[0])
	assert.Equal(t, `{"id":"42"}`, got.Body)

	// The input draft is untouched.
	assert.Equal(t, "{{id}}", d.Headers[0].Value)
	assert.Equal(t, "https://{{host}}/items", d.URL)
}

func TestResolver_Clone(t *testing.T) {
	r := NewResolver()
	r.SetVariable("a", "1")

	c := r.Clone()
	c.SetVariable("a", "2")

	v, _ := r.GetVariable("a")
	assert.Equal(t, "1", v)
	assert.Equal(t, "2", c.Resolve("{{a}}"))
}

func TestMergeVariables(t *testing.T) {
	got := MergeVariables(
		map[string]any{"a": "1", "b": "1"},
		StringVariables(map[string]string{"b": "2"}),
		nil,
	)
	assert.Equal(t, map[string]any{"a": "1", "b": "2"}, got)
}

func TestLoadSystemEnv(t *testing.T) {
	t.Setenv("HITDRAFT_VAR_host", "api.test")

	vars := LoadSystemEnv("HITDRAFT_VAR_")
	assert.Equal(t, "api.test", vars["host"])
	_, ok := vars["HITDRAFT_VAR_host"]
	assert.False(t, ok)
}
