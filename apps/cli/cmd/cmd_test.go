package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/config"
	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	hithttp "github.com/abdul-hamid-achik/hitdraft/packages/http"
	"github.com/abdul-hamid-achik/hitdraft/packages/store"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	stdout string
	stderr string
	code   int
}

func execute(t *testing.T, args ...string) result {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	code := run(root, append([]string{"--no-color"}, args...), &errOut)
	return result{stdout: out.String(), stderr: errOut.String(), code: code}
}

// echoServer answers every request with a JSON description of it.
func echoServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"rawQuery":    r.URL.RawQuery,
			"contentType": r.Header.Get("Content-Type"),
			"trace":       r.Header.Get("X-Trace"),
			"body":        string(body),
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

type exchange struct {
	Request struct {
		Method  string            `json:"method"`
		URL     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"request"`
	Response struct {
		Error   bool   `json:"error"`
		Kind    string `json:"kind"`
		Status  int    `json:"status"`
		Size    int    `json:"size"`
		Data    string `json:"data"`
		Message string `json:"message"`
	} `json:"response"`
}

func decodeExchange(t *testing.T, stdout string) (exchange, map[string]any) {
	t.Helper()
	var ex exchange
	require.NoError(t, json.Unmarshal([]byte(stdout), &ex), stdout)
	var echoed map[string]any
	if ex.Response.Data != "" {
		require.NoError(t, json.Unmarshal([]byte(ex.Response.Data), &echoed))
	}
	return ex, echoed
}

func openTestStore(t *testing.T, path string) store.Store {
	t.Helper()
	st, err := store.Open("", path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func descriptorWithData(data string) hithttp.Descriptor {
	return hithttp.Descriptor{Status: 200, StatusText: "OK", Data: data, Size: len(data)}
}

func storeFlag(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "saved.yaml")
}

func TestSend_GetWithQuery(t *testing.T) {
	srv, _ := echoServer(t)

	res := execute(t, "send", "get", srv.URL+"/users?stale=1", "-q", "page=2", "-q", "q=a b", "-o", "json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	ex, echoed := decodeExchange(t, res.stdout)
	assert.Equal(t, "GET", ex.Request.Method)
	assert.Equal(t, srv.URL+"/users?page=2&q=a%20b", ex.Request.URL)
	assert.Equal(t, 200, ex.Response.Status)
	assert.Equal(t, len(ex.Response.Data), ex.Response.Size)
	assert.Equal(t, "page=2&q=a%20b", echoed["rawQuery"])
	assert.True(t, strings.HasPrefix(ex.Response.Data, "{\n  \""), "expected pretty JSON: %q", ex.Response.Data)
}

func TestSend_PostDefaultsContentType(t *testing.T) {
	srv, _ := echoServer(t)

	res := execute(t, "send", "POST", srv.URL, "-d", `{"name":"ada"}`, "-H", "X-Trace: abc", "-o", "json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	_, echoed := decodeExchange(t, res.stdout)
	assert.Equal(t, "application/json", echoed["contentType"])
	assert.Equal(t, "abc", echoed["trace"])
	assert.Equal(t, `{"name":"ada"}`, echoed["body"])
}

func TestSend_BodyFromFile(t *testing.T) {
	srv, _ := echoServer(t)
	path := filepath.Join(t.TempDir(), "body.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain"), 0644))

	res := execute(t, "send", "PUT", srv.URL, "-d", "@"+path, "-H", "Content-Type: text/plain", "-o", "json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	_, echoed := decodeExchange(t, res.stdout)
	assert.Equal(t, "text/plain", echoed["contentType"])
	assert.Equal(t, "plain", echoed["body"])
}

func TestSend_GetNeverSendsBody(t *testing.T) {
	srv, _ := echoServer(t)

	res := execute(t, "send", "GET", srv.URL, "-d", "ignored", "-o", "json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	_, echoed := decodeExchange(t, res.stdout)
	assert.Equal(t, "", echoed["body"])
	assert.Equal(t, "", echoed["contentType"])
}

func TestSend_ConsoleOutput(t *testing.T) {
	srv, _ := echoServer(t)

	res := execute(t, "send", "GET", srv.URL+"/x", "--filter", "path")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "GET "+srv.URL+"/x")
	assert.Contains(t, res.stdout, "200 OK")
	assert.True(t, strings.HasSuffix(res.stdout, "\n/x\n"), res.stdout)
}

func TestSend_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(nethttp.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := execute(t, "send", "GET", url, "-o", "json")
	assert.Equal(t, ExitNetworkError, res.code)
	assert.NotContains(t, res.stderr, "Error:")

	ex, _ := decodeExchange(t, res.stdout)
	assert.True(t, ex.Response.Error)
	assert.Equal(t, "transport", ex.Response.Kind)
	assert.Equal(t, 0, ex.Response.Status)
}

func TestSend_DecodeFailure(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "{not json")
	}))
	defer srv.Close()

	res := execute(t, "send", "GET", srv.URL)
	assert.Equal(t, ExitNetworkError, res.code)
	assert.Contains(t, res.stdout, "decode error")
}

func TestSend_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unsupported method", []string{"send", "TRACE", "http://localhost"}},
		{"header without colon", []string{"send", "GET", "http://localhost", "-H", "broken"}},
		{"query without key", []string{"send", "GET", "http://localhost", "-q", "=v"}},
		{"bad timeout", []string{"send", "GET", "http://localhost", "--timeout", "soon"}},
		{"bad output", []string{"send", "GET", "http://localhost", "-o", "xml"}},
		{"missing body file", []string{"send", "POST", "http://localhost", "-d", "@/does/not/exist"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, tt.args...)
			assert.Equal(t, ExitUsageError, res.code, res.stderr)
			assert.Contains(t, res.stderr, "Error:")
		})
	}
}

func TestSend_SaveKeepsPlaceholders(t *testing.T) {
	srv, hits := echoServer(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("HOST="+srv.URL+"\n"), 0644))
	st := storeFlag(t)

	res := execute(t, "--store", st, "send", "GET", "{{HOST}}/users", "--env-file", envFile, "--save", "users", "-o", "json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, int32(1), hits.Load())

	ex, _ := decodeExchange(t, res.stdout)
	assert.Equal(t, srv.URL+"/users", ex.Request.URL)

	res = execute(t, "--store", st, "saved", "export", "0")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "# users")
	assert.Contains(t, res.stdout, "{{HOST}}/users")
}

func TestSend_ExportEnv(t *testing.T) {
	srv, _ := echoServer(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("HITDRAFT_TEST_TOKEN=from-file\n"), 0644))
	t.Setenv("HITDRAFT_TEST_TOKEN", "")
	require.NoError(t, os.Unsetenv("HITDRAFT_TEST_TOKEN"))

	res := execute(t, "send", "GET", srv.URL, "-H", "X-Token: {{$HITDRAFT_TEST_TOKEN}}", "--env-file", envFile, "-o", "json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	ex, _ := decodeExchange(t, res.stdout)
	assert.Equal(t, "{{$HITDRAFT_TEST_TOKEN}}", ex.Request.Headers["X-Token"])

	res = execute(t, "send", "GET", srv.URL, "-H", "X-Token: {{$HITDRAFT_TEST_TOKEN}}", "--env-file", envFile, "--export-env", "-o", "json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	ex, _ = decodeExchange(t, res.stdout)
	assert.Equal(t, "from-file", ex.Request.Headers["X-Token"])
	assert.Equal(t, "from-file", os.Getenv("HITDRAFT_TEST_TOKEN"))
}

func TestSend_BlankSaveNameRejected(t *testing.T) {
	srv, hits := echoServer(t)
	st := storeFlag(t)

	res := execute(t, "--store", st, "send", "GET", srv.URL, "--save", "   ")
	assert.Equal(t, ExitUsageError, res.code)
	assert.Contains(t, res.stderr, "please enter a name")
	assert.Equal(t, int32(0), hits.Load())

	res = execute(t, "--store", st, "saved", "list", "-o", "json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.JSONEq(t, "[]", res.stdout)
}

func TestSend_Profile(t *testing.T) {
	srv, hits := echoServer(t)

	res := execute(t, "send", "GET", srv.URL, "-n", "6", "-c", "3")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, int32(6), hits.Load())
	assert.Contains(t, res.stdout, "6 (6 ok, 0 failed)")
	assert.Contains(t, res.stdout, "200×6")
}

func TestSaved_Lifecycle(t *testing.T) {
	srv, hits := echoServer(t)
	st := storeFlag(t)

	for _, name := range []string{"first", "second", "third"} {
		res := execute(t, "--store", st, "send", "GET", srv.URL+"/"+name, "--save", name)
		require.Equal(t, ExitSuccess, res.code, res.stderr)
		assert.Contains(t, res.stderr, "Saved as")
	}

	res := execute(t, "--store", st, "saved", "list")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "0  GET     first")
	assert.Contains(t, res.stdout, "2  GET     third")

	res = execute(t, "--store", st, "saved", "show", "1")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "#1 second")

	res = execute(t, "--store", st, "saved", "delete", "0")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stderr, `Deleted #0 "first"`)

	res = execute(t, "--store", st, "saved", "list", "-o", "json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	var list []struct {
		Index int    `json:"index"`
		Name  string `json:"name"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Name)
	assert.Equal(t, 1, list[1].Index)

	before := hits.Load()
	res = execute(t, "--store", st, "saved", "send", "1", "-o", "json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	_, echoed := decodeExchange(t, res.stdout)
	assert.Equal(t, "/third", echoed["path"])
	assert.Equal(t, before+1, hits.Load())
}

func TestSaved_OutOfRange(t *testing.T) {
	st := storeFlag(t)

	for _, args := range [][]string{
		{"saved", "show", "0"},
		{"saved", "delete", "3"},
		{"saved", "send", "0"},
		{"saved", "export", "first"},
	} {
		res := execute(t, append([]string{"--store", st}, args...)...)
		assert.Equal(t, ExitUsageError, res.code, "%v", args)
		assert.Contains(t, res.stderr, "Error:")
	}
}

func TestSaved_ExportToFileRunsBack(t *testing.T) {
	srv, _ := echoServer(t)
	st := storeFlag(t)
	out := filepath.Join(t.TempDir(), "draft.yaml")

	res := execute(t, "--store", st, "send", "POST", srv.URL+"/items", "-d", `{"a":1}`, "-q", "v=1", "--save", "create")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	res = execute(t, "--store", st, "saved", "export", "0", "-o", out)
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	d, err := draft.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, draft.MethodPost, d.Method)
	assert.Equal(t, `{"a":1}`, d.Body)

	res = execute(t, "run", out, "-o", "json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	_, echoed := decodeExchange(t, res.stdout)
	assert.Equal(t, "POST", echoed["method"])
	assert.Equal(t, "v=1", echoed["rawQuery"])
}

func TestSaved_SQLiteStore(t *testing.T) {
	srv, _ := echoServer(t)
	st := "sqlite:" + filepath.Join(t.TempDir(), "saved.db")

	res := execute(t, "--store", st, "send", "GET", srv.URL, "--save", "in sqlite")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	res = execute(t, "--store", st, "saved", "list")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "in sqlite")
}

func TestRun_DraftFile(t *testing.T) {
	srv, _ := echoServer(t)
	path := filepath.Join(t.TempDir(), "req.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`method: patch
url: "`+srv.URL+`/users/1?old=1"
queryParams:
  - key: notify
    value: "yes"
  - key: skip
    value: "1"
    enabled: false
headers:
  - key: X-Trace
    value: "{{$uuid()}}"
body: '{"name":"bob"}'
`), 0644))

	res := execute(t, "run", path, "-o", "json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	_, echoed := decodeExchange(t, res.stdout)
	assert.Equal(t, "PATCH", echoed["method"])
	assert.Equal(t, "notify=yes", echoed["rawQuery"])
	assert.Equal(t, "application/json", echoed["contentType"])
	assert.Len(t, echoed["trace"], 36)
}

func TestRun_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("method: [nope"), 0644))

	res := execute(t, "run", path)
	assert.Equal(t, ExitParseError, res.code)

	res = execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, ExitParseError, res.code)
}

func TestImport_CurlSave(t *testing.T) {
	st := storeFlag(t)

	res := execute(t, "--store", st, "import", "curl", `curl -X POST -H 'X-Trace: 1' https://api.example.com/users?page=2 -d '{"a":1}'`, "--save")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stderr, "Saved 1 request(s)")

	s, err := openTestStore(t, st).Get(0)
	require.NoError(t, err)
	assert.Equal(t, draft.MethodPost, s.Method)
	assert.Equal(t, "https://api.example.com/users", s.URL)
	assert.Equal(t, draft.Entries{{Key: "page", Value: "2", Enabled: true}}, s.QueryParams)
	assert.Equal(t, `{"a":1}`, s.Body)
}

func TestImport_CurlToStdout(t *testing.T) {
	res := execute(t, "import", "curl", "--", "curl", "-X", "DELETE", "https://api.example.com/users/1")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "method: DELETE")
	assert.Contains(t, res.stdout, "url: https://api.example.com/users/1")
}

func TestImport_Postman(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "collection.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"item": [
		{"name": "one", "request": {"method": "GET", "url": "https://a.example.com/1"}},
		{"name": "two", "request": {"method": "GET", "url": "https://a.example.com/2"}}
	]}`), 0644))
	out := filepath.Join(dir, "drafts", "all.yaml")

	res := execute(t, "import", "postman", path, "-o", out)
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# one\n")
	assert.Contains(t, string(data), "---\n# two\n")

	d, err := draft.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example.com/1", d.URL)
}

func TestImport_Errors(t *testing.T) {
	res := execute(t, "import", "curl")
	assert.Equal(t, ExitUsageError, res.code)

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0644))
	res = execute(t, "import", "insomnia", path)
	assert.Equal(t, ExitParseError, res.code)
}

func TestInitProject(t *testing.T) {
	dir := t.TempDir()
	cmd := newInitCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, initProject(cmd, dir, false))
	assert.Contains(t, out.String(), "hitdraft project initialized!")

	cfg, err := config.LoadConfig(filepath.Join(dir, ".hitdraft.json"))
	require.NoError(t, err)
	assert.Equal(t, "application/json", cfg.Headers["Accept"])
	assert.Equal(t, "file", cfg.Store.Driver)

	d, err := draft.ReadFile(filepath.Join(dir, "example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, draft.MethodPost, d.Method)
	assert.False(t, d.Headers[1].Enabled)

	err = initProject(cmd, dir, false)
	assert.Equal(t, ExitUsageError, exitCode(err))
	assert.NoError(t, initProject(cmd, dir, true))
}

func TestConfigErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{bad"), 0644))

	res := execute(t, "--config", path, "saved", "list")
	assert.Equal(t, ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "failed to load config")
}

func TestConfigVariablesAndHeaders(t *testing.T) {
	srv, _ := echoServer(t)
	path := filepath.Join(t.TempDir(), "hitdraft.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"headers": {"X-Trace": "from-config"},
		"variables": {"base": "`+srv.URL+`"},
		"contentTypeMatch": "fold"
	}`), 0644))

	res := execute(t, "--config", path, "send", "POST", "{{base}}/x", "-d", "a=b", "-H", "content-type: text/plain", "-o", "json")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	_, echoed := decodeExchange(t, res.stdout)
	assert.Equal(t, "from-config", echoed["trace"])
	assert.Equal(t, "text/plain", echoed["contentType"])
}

func TestVersion(t *testing.T) {
	res := execute(t, "version")
	require.Equal(t, ExitSuccess, res.code)
	assert.Contains(t, res.stdout, "hitdraft version dev")
}

func TestDownloadResponse(t *testing.T) {
	dir := t.TempDir()
	now := time.UnixMilli(1700000000123)

	path, err := downloadResponse(dir, descriptorWithData(`{"a": 1}`), now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "response_1700000000123.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, string(data))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"explicit", withExitCode(ExitParseError, errors.New("x")), ExitParseError},
		{"input", &draft.InputError{Field: "name", Message: "empty"}, ExitUsageError},
		{"not found", fmt.Errorf("get: %w", store.ErrNotFound), ExitUsageError},
		{"config", &config.ParseError{Path: "x", Err: errors.New("bad")}, ExitConfigError},
		{"other", errors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("HITDRAFT_TEST_STRING", "value")
	t.Setenv("HITDRAFT_TEST_BOOL", "yes")
	t.Setenv("HITDRAFT_TEST_INT", "12")
	t.Setenv("HITDRAFT_TEST_BAD_INT", "twelve")

	assert.Equal(t, "value", getEnvString("HITDRAFT_TEST_STRING", "d"))
	assert.Equal(t, "d", getEnvString("HITDRAFT_TEST_UNSET", "d"))
	assert.True(t, getEnvBool("HITDRAFT_TEST_BOOL", false))
	assert.True(t, getEnvBool("HITDRAFT_TEST_UNSET", true))
	assert.Equal(t, 12, getEnvInt("HITDRAFT_TEST_INT", 1))
	assert.Equal(t, 1, getEnvInt("HITDRAFT_TEST_BAD_INT", 1))
}
