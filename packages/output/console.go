package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"github.com/abdul-hamid-achik/hitdraft/packages/http"
	"github.com/abdul-hamid-achik/hitdraft/packages/profile"
	"github.com/fatih/color"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
	filter  string
	body    bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
		body:   true,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose adds request and response headers to the output.
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// WithFilter prints only the part of a JSON body selected by a gjson path.
func WithFilter(path string) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.filter = path
	}
}

// WithBody toggles printing the response body.
func WithBody(show bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.body = show
	}
}

func (f *ConsoleFormatter) FormatResponse(call http.Call, d http.Descriptor) {
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(f.writer, "%s %s\n", MethodColor(call.Method).Sprint(string(call.Method)), call.URL)

	if f.verbose {
		writeHeaders(f.writer, call.Headers, dim("> "))
	}

	if d.Error {
		fmt.Fprintf(f.writer, "%s %s\n", red(fmt.Sprintf("✗ %s error:", d.Kind)), d.Message)
		return
	}

	status := strings.TrimSpace(fmt.Sprintf("%d %s", d.Status, d.StatusText))
	fmt.Fprintf(f.writer, "%s  %s  %s",
		StatusColor(d.Status).Sprint(status),
		bold(fmt.Sprintf("%d ms", d.Time)),
		bold(FormatBytes(int64(d.Size))))
	if f.verbose && d.WireSize != int64(d.Size) {
		fmt.Fprintf(f.writer, "  %s", dim(CompactBytes(d.WireSize)+" on the wire"))
	}
	fmt.Fprintln(f.writer)

	if f.verbose {
		writeHeaders(f.writer, d.Headers, dim("< "))
	}

	if !f.body {
		return
	}

	data := d.Data
	if f.filter != "" {
		filtered, err := ApplyFilter(d.Data, f.filter)
		if err != nil {
			f.FormatError(err)
			return
		}
		data = filtered
	}
	if data != "" {
		fmt.Fprintf(f.writer, "\n%s\n", data)
	}
}

func writeHeaders(w io.Writer, headers map[string]string, prefix string) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s%s: %s\n", prefix, k, headers[k])
	}
}

func (f *ConsoleFormatter) FormatSaved(list []draft.Saved) {
	dim := color.New(color.Faint).SprintFunc()

	if len(list) == 0 {
		fmt.Fprintln(f.writer, dim("No saved requests"))
		return
	}

	for i, s := range list {
		badge := MethodColor(s.Method).Sprintf("%-7s", string(s.Method))
		fmt.Fprintf(f.writer, "%3d  %s %s\n", i, badge, s.Name)
		fmt.Fprintf(f.writer, "     %s\n", dim(s.URL+"  ·  "+savedAt(s.Timestamp)))
	}
}

func (f *ConsoleFormatter) FormatSavedDetail(index int, s draft.Saved) {
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(f.writer, "%s %s\n", bold(fmt.Sprintf("#%d", index)), bold(s.Name))
	fmt.Fprintf(f.writer, "%s %s\n", MethodColor(s.Method).Sprint(string(s.Method)), s.URL)
	fmt.Fprintf(f.writer, "%s\n", dim("saved "+savedAt(s.Timestamp)))

	writeEntries(f.writer, "Query", s.QueryParams)
	writeEntries(f.writer, "Headers", s.Headers)

	if s.HasBody() {
		fmt.Fprintf(f.writer, "\n%s (%s)\n%s\n", bold("Body"), FormatBytes(int64(len(s.Body))), s.Body)
	}
}

func writeEntries(w io.Writer, title string, es draft.Entries) {
	if len(es) == 0 {
		return
	}
	dim := color.New(color.Faint).SprintFunc()
	fmt.Fprintf(w, "\n%s (%d enabled)\n", color.New(color.Bold).Sprint(title), enabledCount(es))
	for _, e := range es {
		line := fmt.Sprintf("  %s: %s", e.Key, e.Value)
		if !e.Enabled {
			line = dim(line + " (disabled)")
		}
		fmt.Fprintln(w, line)
	}
}

func savedAt(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04:05")
}

// FormatProfile prints a latency summary.
func (f *ConsoleFormatter) FormatProfile(r *profile.Report) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", bold("Profile"))
	fmt.Fprintf(f.writer, "  Requests:  %d (%s, %s) in %s, %.1f req/s\n",
		r.Total,
		green(fmt.Sprintf("%d ok", r.Success)),
		red(fmt.Sprintf("%d failed", r.Failures)),
		r.Duration.Round(time.Millisecond), r.RPS)
	fmt.Fprintf(f.writer, "  Latency:   min %s  mean %s  max %s\n",
		round(r.Min), round(r.Mean), round(r.Max))
	fmt.Fprintf(f.writer, "  Percentile: p50 %s  p90 %s  p95 %s  p99 %s\n",
		round(r.P50), round(r.P90), round(r.P95), round(r.P99))
	fmt.Fprintf(f.writer, "  Received:  %s\n", CompactBytes(r.Bytes))

	if len(r.Statuses) > 0 {
		codes := make([]int, 0, len(r.Statuses))
		for code := range r.Statuses {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		parts := make([]string, 0, len(codes))
		for _, code := range codes {
			parts = append(parts, StatusColor(code).Sprintf("%d×%d", code, r.Statuses[code]))
		}
		fmt.Fprintf(f.writer, "  Statuses:  %s\n", strings.Join(parts, "  "))
	}
	kinds := make([]string, 0, len(r.Kinds))
	for kind := range r.Kinds {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(f.writer, "  %s: %d\n", red(kind+" failures"), r.Kinds[http.ErrorKind(kind)])
	}
}

func round(d time.Duration) time.Duration {
	return d.Round(10 * time.Microsecond)
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("hitdraft"), version)
}
