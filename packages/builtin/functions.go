package builtin

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitdraft/packages/compose"
	"github.com/google/uuid"
)

// Func computes a value from already-split arguments.
type Func func(args []string) (string, error)

// Registry maps function names to implementations.
type Registry struct {
	funcs map[string]Func
	now   func() time.Time
}

type Option func(*Registry)

// WithClock replaces time.Now for the time-based functions.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["now"] = func(_ []string) (string, error) {
		return r.now().UTC().Format(time.RFC3339), nil
	}
	r.funcs["timestamp"] = func(_ []string) (string, error) {
		return strconv.FormatInt(r.now().Unix(), 10), nil
	}
	r.funcs["timestampMs"] = func(_ []string) (string, error) {
		return strconv.FormatInt(r.now().UnixMilli(), 10), nil
	}
	r.funcs["date"] = func(args []string) (string, error) {
		layout := "2006-01-02"
		if len(args) >= 1 && args[0] != "" {
			layout = args[0]
		}
		return r.now().UTC().Format(layout), nil
	}
	r.funcs["uuid"] = funcUUID
	r.funcs["random"] = funcRandom
	r.funcs["randomString"] = funcRandomString
	r.funcs["base64"] = funcBase64
	r.funcs["sha256"] = funcSHA256
	r.funcs["urlEncode"] = funcURLEncode
}

func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Names lists the registered functions in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// Call evaluates an expression such as `uuid()` or `random(1, 6)`. The
// boolean is false when expr is not a call to a registered function.
func (r *Registry) Call(expr string) (string, bool, error) {
	matches := funcCallPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if matches == nil {
		return "", false, nil
	}

	fn, ok := r.funcs[matches[1]]
	if !ok {
		return "", false, nil
	}

	var args []string
	if matches[2] != "" {
		args = parseArgs(matches[2])
	}

	out, err := fn(args)
	if err != nil {
		return "", true, fmt.Errorf("%s(): %w", matches[1], err)
	}
	return out, true, nil
}

// parseArgs splits on commas outside single or double quotes and strips
// the quotes.
func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case !inQuote && (ch == '"' || ch == '\''):
			inQuote = true
			quoteChar = ch
		case inQuote && ch == quoteChar:
			inQuote = false
			quoteChar = 0
		case !inQuote && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 || len(args) > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}

	return args
}

func funcUUID(_ []string) (string, error) {
	return uuid.NewString(), nil
}

func funcRandom(args []string) (string, error) {
	lo, hi := 0, 100
	if len(args) >= 2 {
		var err error
		if lo, err = strconv.Atoi(args[0]); err != nil {
			return "", fmt.Errorf("min %q is not an integer", args[0])
		}
		if hi, err = strconv.Atoi(args[1]); err != nil {
			return "", fmt.Errorf("max %q is not an integer", args[1])
		}
	}
	if hi < lo {
		return "", fmt.Errorf("max %d is below min %d", hi, lo)
	}
	return strconv.Itoa(rand.IntN(hi-lo+1) + lo), nil
}

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func funcRandomString(args []string) (string, error) {
	length := 16
	if len(args) >= 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return "", fmt.Errorf("length %q is not a non-negative integer", args[0])
		}
		length = v
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = alphanumeric[rand.IntN(len(alphanumeric))]
	}
	return string(out), nil
}

func funcBase64(args []string) (string, error) {
	if len(args) < 1 {
		return "", nil
	}
	return base64.StdEncoding.EncodeToString([]byte(args[0])), nil
}

func funcSHA256(args []string) (string, error) {
	if len(args) < 1 {
		return "", nil
	}
	sum := sha256.Sum256([]byte(args[0]))
	return hex.EncodeToString(sum[:]), nil
}

// funcURLEncode uses the same component encoding as query composition.
func funcURLEncode(args []string) (string, error) {
	if len(args) < 1 {
		return "", nil
	}
	return compose.EncodeComponent(args[0]), nil
}
