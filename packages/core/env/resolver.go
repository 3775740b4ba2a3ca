package env

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/hitdraft/packages/builtin"
	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Resolver expands {{...}} placeholders. Supported forms:
//
//	{{name}}          a variable set with SetVariable(s)
//	{{$NAME}}         an OS environment variable
//	{{$fn(args)}}     a builtin function, also accepted without the $
//
// Placeholders that cannot be resolved are left in place and logged.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]any
	funcs     *builtin.Registry
	lookupEnv func(string) (string, bool)
	logger    *slog.Logger
}

type Option func(*Resolver)

func WithRegistry(funcs *builtin.Registry) Option {
	return func(r *Resolver) {
		r.funcs = funcs
	}
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(r *Resolver) {
		r.lookupEnv = lookup
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		variables: make(map[string]any),
		lookupEnv: os.LookupEnv,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.funcs == nil {
		r.funcs = builtin.NewRegistry()
	}
	return r
}

func (r *Resolver) SetVariables(vars map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *Resolver) GetVariable(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variables[name]
	return v, ok
}

// Resolve expands every placeholder in input.
func (r *Resolver) Resolve(input string) string {
	if !strings.Contains(input, "{{") {
		return input
	}
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		if val, ok := r.lookup(expr); ok {
			return val
		}
		r.logger.Warn("unresolved placeholder", slog.String("expr", expr))
		return match
	})
}

func (r *Resolver) lookup(expr string) (string, bool) {
	name, isEnv := strings.CutPrefix(expr, "$")

	if strings.Contains(name, "(") {
		val, ok, err := r.funcs.Call(name)
		if err != nil {
			r.logger.Warn("builtin function failed",
				slog.String("expr", expr),
				slog.String("error", err.Error()))
			return "", false
		}
		return val, ok
	}

	if isEnv {
		return r.lookupEnv(name)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if val, ok := r.variables[name]; ok {
		return fmt.Sprintf("%v", val), true
	}
	return "", false
}

// Unresolved returns the distinct placeholders in input that would be left
// unexpanded, sorted.
func (r *Resolver) Unresolved(input string) []string {
	seen := make(map[string]bool)
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		expr := strings.TrimSpace(m[1])
		if strings.Contains(expr, "(") {
			if _, ok, err := r.funcs.Call(strings.TrimPrefix(expr, "$")); ok && err == nil {
				continue
			}
		} else if _, ok := r.lookup(expr); ok {
			continue
		}
		seen[expr] = true
	}

	out := make([]string, 0, len(seen))
	for expr := range seen {
		out = append(out, expr)
	}
	sort.Strings(out)
	return out
}

// ResolveDraft returns a copy of d with placeholders expanded in the URL,
// body and every entry key and value.
func (r *Resolver) ResolveDraft(d draft.Draft) draft.Draft {
	out := d.Clone()
	out.URL = r.Resolve(out.URL)
	out.Body = r.Resolve(out.Body)
	r.resolveEntries(out.Headers)
	r.resolveEntries(out.QueryParams)
	return out
}

func (r *Resolver) resolveEntries(es draft.Entries) {
	for i := range es {
		es[i].Key = r.Resolve(es[i].Key)
		es[i].Value = r.Resolve(es[i].Value)
	}
}

// Clone returns a resolver with a copy of r's variables.
func (r *Resolver) Clone() *Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &Resolver{
		variables: make(map[string]any, len(r.variables)),
		funcs:     r.funcs,
		lookupEnv: r.lookupEnv,
		logger:    r.logger,
	}
	for k, v := range r.variables {
		clone.variables[k] = v
	}
	return clone
}
