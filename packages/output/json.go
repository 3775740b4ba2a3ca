package output

import (
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"github.com/abdul-hamid-achik/hitdraft/packages/http"
	"github.com/abdul-hamid-achik/hitdraft/packages/profile"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// JSONRequest is the request half of a dispatch record.
type JSONRequest struct {
	Method  draft.Method      `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// JSONExchange pairs what was sent with the descriptor that came back.
type JSONExchange struct {
	Request  JSONRequest     `json:"request"`
	Response http.Descriptor `json:"response"`
	Selected json.RawMessage `json:"selected,omitempty"`
}

// JSONSaved is one row of a saved-request listing.
type JSONSaved struct {
	Index int `json:"index"`
	draft.Saved
	SavedAt string `json:"savedAt"`
}

// JSONFormatter writes one indented JSON document per call.
type JSONFormatter struct {
	writer io.Writer
	filter string
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

// JSONWithFilter adds the value selected by a gjson path as "selected".
func JSONWithFilter(path string) JSONOption {
	return func(f *JSONFormatter) {
		f.filter = path
	}
}

func (f *JSONFormatter) FormatResponse(call http.Call, d http.Descriptor) {
	ex := JSONExchange{
		Request: JSONRequest{
			Method:  call.Method,
			URL:     call.URL,
			Headers: call.Headers,
		},
		Response: d,
	}
	if call.HasBody && call.Method.AllowsBody() {
		ex.Request.Body = call.Body
	}
	if f.filter != "" && !d.Error && gjson.Valid(d.Data) {
		if r := gjson.Get(d.Data, f.filter); r.Exists() {
			ex.Selected = json.RawMessage(r.Raw)
		}
	}
	f.encode(ex)
}

func (f *JSONFormatter) FormatSaved(list []draft.Saved) {
	rows := make([]JSONSaved, len(list))
	for i, s := range list {
		rows[i] = JSONSaved{
			Index:   i,
			Saved:   s,
			SavedAt: time.UnixMilli(s.Timestamp).UTC().Format(time.RFC3339),
		}
	}
	f.encode(rows)
}

func (f *JSONFormatter) FormatSavedDetail(index int, s draft.Saved) {
	f.encode(JSONSaved{
		Index:   index,
		Saved:   s,
		SavedAt: time.UnixMilli(s.Timestamp).UTC().Format(time.RFC3339),
	})
}

func (f *JSONFormatter) FormatProfile(r *profile.Report) {
	f.encode(r)
}

func (f *JSONFormatter) FormatError(err error) {
	f.encode(struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}{true, err.Error()})
}

func (f *JSONFormatter) encode(v any) {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}
