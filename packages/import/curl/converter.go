// Package curl converts curl command lines into hitdraft drafts.
package curl

import (
	"bufio"
	"encoding/base64"
	"fmt"
	neturl "net/url"
	"os"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
)

// Converter converts curl commands to drafts.
type Converter struct {
	splitQuery bool
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithSplitQuery controls whether the URL's query string is moved into
// the draft's query parameter list. It is on by default.
func WithSplitQuery(split bool) Option {
	return func(c *Converter) {
		c.splitQuery = split
	}
}

// NewConverter creates a new curl converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		splitQuery: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parsed is the result of converting one curl command.
type Parsed struct {
	Name  string
	Draft draft.Draft
	// Transport flags that have no place in a draft.
	Insecure        bool
	FollowRedirects bool
}

// Parse converts a single curl command.
func (c *Converter) Parse(curlCmd string) (*Parsed, error) {
	curlCmd = strings.TrimSpace(curlCmd)
	if rest, ok := strings.CutPrefix(curlCmd, "curl"); ok && (rest == "" || rest[0] == ' ' || rest[0] == '\t') {
		curlCmd = rest
	}

	tokens := tokenize(curlCmd)

	var (
		method      string
		rawURL      string
		headers     draft.Entries
		data        []string
		getMode     bool
		insecure    bool
		follow      bool
		jsonPayload bool
	)

	value := func(i int, flag string) (string, error) {
		if i+1 >= len(tokens) {
			return "", fmt.Errorf("missing value for %s", flag)
		}
		return tokens[i+1], nil
	}

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]

		switch token {
		case "-X", "--request":
			v, err := value(i, token)
			if err != nil {
				return nil, err
			}
			method = v
			i++

		case "-H", "--header":
			v, err := value(i, token)
			if err != nil {
				return nil, err
			}
			if entry, err := draft.ParseEntry(v, ":"); err == nil {
				headers = append(headers, entry)
			}
			i++

		case "-d", "--data", "--data-raw", "--data-binary", "--data-ascii", "--data-urlencode", "--json":
			v, err := value(i, token)
			if err != nil {
				return nil, err
			}
			if strings.HasPrefix(v, "@") && token != "--data-raw" {
				b, err := os.ReadFile(strings.TrimPrefix(v, "@"))
				if err != nil {
					return nil, fmt.Errorf("read %s: %w", v, err)
				}
				v = string(b)
			}
			if token == "--json" {
				jsonPayload = true
			}
			data = append(data, v)
			i++

		case "-u", "--user":
			v, err := value(i, token)
			if err != nil {
				return nil, err
			}
			headers = append(headers, draft.Entry{
				Key:     "Authorization",
				Value:   "Basic " + base64.StdEncoding.EncodeToString([]byte(v)),
				Enabled: true,
			})
			i++

		case "-A", "--user-agent":
			v, err := value(i, token)
			if err != nil {
				return nil, err
			}
			headers.Append("User-Agent", v)
			i++

		case "-e", "--referer":
			v, err := value(i, token)
			if err != nil {
				return nil, err
			}
			headers.Append("Referer", v)
			i++

		case "-b", "--cookie":
			v, err := value(i, token)
			if err != nil {
				return nil, err
			}
			headers.Append("Cookie", v)
			i++

		case "--url":
			v, err := value(i, token)
			if err != nil {
				return nil, err
			}
			rawURL = v
			i++

		case "-G", "--get":
			getMode = true

		case "-I", "--head":
			method = "HEAD"

		case "-k", "--insecure":
			insecure = true

		case "-L", "--location":
			follow = true

		default:
			switch {
			case strings.HasPrefix(token, "-"):
				// Unknown flag: skip its value when it clearly has one
				if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !isURL(tokens[i+1]) {
					i++
				}
			case rawURL == "" && isURL(token):
				rawURL = token
			}
		}
	}

	if rawURL == "" {
		return nil, fmt.Errorf("no URL found in curl command")
	}

	d := draft.Draft{Headers: headers}
	body := strings.Join(data, "&")
	if jsonPayload {
		body = strings.Join(data, "")
		if !hasHeader(d.Headers, "Content-Type") {
			d.Headers.Append("Content-Type", "application/json")
		}
		if !hasHeader(d.Headers, "Accept") {
			d.Headers.Append("Accept", "application/json")
		}
	}

	switch {
	case getMode && len(data) > 0:
		rawURL = appendQuery(rawURL, body)
	case len(data) > 0:
		d.Body = body
	}

	if method == "" {
		method = "GET"
		if d.Body != "" {
			method = "POST"
		}
	}
	m, err := draft.ParseMethod(method)
	if err != nil {
		return nil, err
	}
	d.Method = m

	d.URL = rawURL
	if c.splitQuery {
		d.URL, d.QueryParams = splitQuery(rawURL)
	}

	return &Parsed{
		Name:            generateName(rawURL, string(m)),
		Draft:           d,
		Insecure:        insecure,
		FollowRedirects: follow,
	}, nil
}

// ParseFile converts every curl command in a file. Blank lines and lines
// starting with # are skipped; a trailing backslash continues a command.
func (c *Converter) ParseFile(path string) ([]*Parsed, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var commands []string
	var currentCmd strings.Builder
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasSuffix(line, "\\") {
			currentCmd.WriteString(strings.TrimSuffix(line, "\\"))
			currentCmd.WriteString(" ")
			continue
		}

		currentCmd.WriteString(line)
		commands = append(commands, currentCmd.String())
		currentCmd.Reset()
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if currentCmd.Len() > 0 {
		commands = append(commands, currentCmd.String())
	}

	out := make([]*Parsed, 0, len(commands))
	for i, cmd := range commands {
		parsed, err := c.Parse(cmd)
		if err != nil {
			return nil, fmt.Errorf("failed to convert command %d: %w", i+1, err)
		}
		out = append(out, parsed)
	}
	return out, nil
}

// splitQuery moves the query string into decoded entries. A query that
// does not decode is left on the URL.
func splitQuery(rawURL string) (string, draft.Entries) {
	base, query, found := strings.Cut(rawURL, "?")
	if !found {
		return rawURL, nil
	}
	query, fragment, _ := strings.Cut(query, "#")
	if fragment != "" {
		return rawURL, nil
	}

	var params draft.Entries
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := neturl.QueryUnescape(k)
		if err != nil {
			return rawURL, nil
		}
		val, err := neturl.QueryUnescape(v)
		if err != nil {
			return rawURL, nil
		}
		params.Append(key, val)
	}
	return base, params
}

func appendQuery(rawURL, query string) string {
	if strings.Contains(rawURL, "?") {
		return rawURL + "&" + query
	}
	return rawURL + "?" + query
}

func hasHeader(es draft.Entries, key string) bool {
	for _, e := range es {
		if strings.EqualFold(e.Key, key) {
			return true
		}
	}
	return false
}

// tokenize splits a curl command into tokens, respecting quotes.
func tokenize(cmd string) []string {
	var tokens []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	escaped := false
	started := false

	for _, r := range cmd {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			if inSingleQuote {
				current.WriteRune(r)
			} else {
				escaped = true
			}
		case '\'':
			if !inDoubleQuote {
				inSingleQuote = !inSingleQuote
				started = true
			} else {
				current.WriteRune(r)
			}
		case '"':
			if !inSingleQuote {
				inDoubleQuote = !inDoubleQuote
				started = true
			} else {
				current.WriteRune(r)
			}
		case ' ', '\t', '\n':
			if inSingleQuote || inDoubleQuote {
				current.WriteRune(r)
			} else if current.Len() > 0 || started {
				tokens = append(tokens, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 || started {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// isURL checks if a string looks like a URL.
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "{{")
}

var urlPathPattern = regexp.MustCompile(`https?://[^/]+(/[^?#]*)?`)

// generateName builds a request name such as "get users 42" from the
// method and URL path.
func generateName(rawURL, method string) string {
	path := "/"
	if matches := urlPathPattern.FindStringSubmatch(rawURL); len(matches) > 1 && matches[1] != "" {
		path = matches[1]
	}

	path = strings.Trim(path, "/")
	if path == "" {
		path = "root"
	}
	path = strings.NewReplacer("/", " ", "-", " ", "_", " ").Replace(path)

	return strings.ToLower(method) + " " + path
}
