package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issue(t *testing.T, c *Client, req *Request) *RawResponse {
	t.Helper()
	resp, err := c.Issue(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/test", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "hello"}`))
	}))
	defer server.Close()

	resp := issue(t, NewClient(), NewRequest("GET", server.URL+"/test"))

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "OK", resp.StatusText)
	assert.Equal(t, "application/json", resp.Header("content-type"))
	assert.True(t, resp.IsJSON())
	assert.Contains(t, resp.BodyString(), "hello")
	assert.Equal(t, int64(len(`{"message": "hello"}`)), resp.WireSize)
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"name": "test"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 123}`))
	}))
	defer server.Close()

	req := NewRequest("POST", server.URL).
		SetHeader("Content-Type", "application/json").
		SetBody(`{"name": "test"}`)
	resp := issue(t, NewClient(), req)

	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "Created", resp.StatusText)
	assert.Contains(t, resp.BodyString(), "123")
}

func TestClient_WithTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithTimeout(50 * time.Millisecond))
	_, err := client.Issue(context.Background(), NewRequest("GET", server.URL))

	require.Error(t, err)
	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
}

func TestClient_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient().Issue(ctx, NewRequest("GET", server.URL))
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_WithDefaultHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "default-value", r.Header.Get("X-Default"))
		assert.Equal(t, "mine", r.Header.Get("X-Override"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(
		WithDefaultHeader("X-Default", "default-value"),
		WithDefaultHeaders(map[string]string{"X-Override": "default"}),
	)
	req := NewRequest("GET", server.URL).SetHeader("x-override", "mine")
	issue(t, client, req)
}

func TestClient_WithUserAgent(t *testing.T) {
	var got []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithUserAgent("hitdraft/test"))
	issue(t, client, NewRequest("GET", server.URL))
	issue(t, client, NewRequest("GET", server.URL).SetHeader("User-Agent", "custom"))

	assert.Equal(t, []string{"hitdraft/test", "custom"}, got)
}

func TestClient_HeaderKeysDifferingInCase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"a", "b"}, r.Header.Values("X-Token"))
		assert.Equal(t, "example.test", r.Host)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	req := NewRequest("GET", server.URL).
		SetHeader("X-Token", "a").
		SetHeader("x-token", "b").
		SetHeader("Host", "example.test")
	resp := issue(t, NewClient(), req)
	assert.Equal(t, 204, resp.StatusCode)
}

func TestClient_RepeatedResponseHeadersJoined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("X-Multi", "one")
		w.Header().Add("X-Multi", "two")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp := issue(t, NewClient(), NewRequest("GET", server.URL))
	assert.Equal(t, "one, two", resp.Headers["X-Multi"])
}

func TestClient_FollowRedirects(t *testing.T) {
	redirectCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`final`))
			return
		}
		redirectCount++
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	resp := issue(t, NewClient(WithFollowRedirects(true)), NewRequest("GET", server.URL+"/redirect"))

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "final", resp.BodyString())
	assert.Equal(t, 1, redirectCount)
}

func TestClient_NoFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	resp := issue(t, NewClient(WithFollowRedirects(false)), NewRequest("GET", server.URL+"/redirect"))

	assert.Equal(t, 302, resp.StatusCode)
	assert.Equal(t, "/final", resp.Header("Location"))
}

func TestClient_MaxRedirects(t *testing.T) {
	redirectCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		redirectCount++
		http.Redirect(w, r, "/redirect", http.StatusFound)
	}))
	defer server.Close()

	resp := issue(t, NewClient(WithMaxRedirects(3)), NewRequest("GET", server.URL+"/redirect"))

	assert.Equal(t, 302, resp.StatusCode)
	assert.LessOrEqual(t, redirectCount, 4)
}

func TestClient_InsecureTLS(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("secure"))
	}))
	defer server.Close()

	_, err := NewClient().Issue(context.Background(), NewRequest("GET", server.URL))
	require.Error(t, err)

	resp := issue(t, NewClient(WithValidateSSL(false)), NewRequest("GET", server.URL))
	assert.Equal(t, "secure", resp.BodyString())
}

func TestClient_ContentEncodings(t *testing.T) {
	const payload = `{"compressed":true,"text":"hello hello hello hello"}`

	encoders := map[string]func(t *testing.T) []byte{
		"gzip": func(t *testing.T) []byte {
			var buf bytes.Buffer
			w := gzip.NewWriter(&buf)
			_, err := w.Write([]byte(payload))
			require.NoError(t, err)
			require.NoError(t, w.Close())
			return buf.Bytes()
		},
		"deflate": func(t *testing.T) []byte {
			var buf bytes.Buffer
			w := zlib.NewWriter(&buf)
			_, err := w.Write([]byte(payload))
			require.NoError(t, err)
			require.NoError(t, w.Close())
			return buf.Bytes()
		},
		"br": func(t *testing.T) []byte {
			var buf bytes.Buffer
			w := brotli.NewWriter(&buf)
			_, err := w.Write([]byte(payload))
			require.NoError(t, err)
			require.NoError(t, w.Close())
			return buf.Bytes()
		},
		"zstd": func(t *testing.T) []byte {
			enc, err := zstd.NewWriter(nil)
			require.NoError(t, err)
			defer enc.Close()
			return enc.EncodeAll([]byte(payload), nil)
		},
	}

	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			compressed := encode(t)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, DefaultAcceptEncoding, r.Header.Get("Accept-Encoding"))
				w.Header().Set("Content-Encoding", name)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write(compressed)
			}))
			defer server.Close()

			resp := issue(t, NewClient(), NewRequest("GET", server.URL))
			assert.Equal(t, payload, resp.BodyString())
			assert.Equal(t, int64(len(compressed)), resp.WireSize)
		})
	}
}

func TestClient_UnsupportedEncodingIsDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "compress")
		_, _ = w.Write([]byte("xxxx"))
	}))
	defer server.Close()

	_, err := NewClient().Issue(context.Background(), NewRequest("GET", server.URL))
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Contains(t, err.Error(), "compress")
}

func TestClient_CharsetConversion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
		_, _ = w.Write([]byte("caf\xe9"))
	}))
	defer server.Close()

	resp := issue(t, NewClient(), NewRequest("GET", server.URL))
	assert.Equal(t, "café", resp.BodyString())
	assert.Equal(t, int64(4), resp.WireSize)
}

func TestClient_InvalidURL(t *testing.T) {
	_, err := NewClient().Issue(context.Background(), NewRequest("GET", "ftp://example.com"))
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Contains(t, err.Error(), "unsupported URL scheme")
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid http URL",
			url:     "http://example.com/path",
			wantErr: false,
		},
		{
			name:    "valid https URL",
			url:     "https://example.com/path",
			wantErr: false,
		},
		{
			name:    "invalid scheme",
			url:     "ftp://example.com",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing scheme",
			url:     "example.com/path",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing host",
			url:     "http:///path",
			wantErr: true,
			errMsg:  "URL must have a host",
		},
		{
			name:    "malformed",
			url:     "http://[::1",
			wantErr: true,
			errMsg:  "invalid URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRawResponse_IsJSON(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"application/problem+json", false},
		{"Application/JSON", false},
		{"text/html", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			resp := &RawResponse{ContentType: tt.contentType}
			assert.Equal(t, tt.want, resp.IsJSON())
		})
	}
}
