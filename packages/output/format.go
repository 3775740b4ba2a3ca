package output

import (
	"fmt"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"github.com/abdul-hamid-achik/hitdraft/packages/http"
	"github.com/abdul-hamid-achik/hitdraft/packages/profile"
	"github.com/fatih/color"
	"github.com/tidwall/gjson"
)

// Formatter renders dispatch results, saved requests and profile reports.
type Formatter interface {
	FormatResponse(call http.Call, d http.Descriptor)
	FormatSaved(list []draft.Saved)
	FormatSavedDetail(index int, s draft.Saved)
	FormatProfile(r *profile.Report)
	FormatError(err error)
}

// FormatBytes renders a display size as B, KB or MB with two decimals.
func FormatBytes(n int64) string {
	switch {
	case n < bytefmt.KILOBYTE:
		return fmt.Sprintf("%d B", n)
	case n < bytefmt.MEGABYTE:
		return fmt.Sprintf("%.2f KB", float64(n)/bytefmt.KILOBYTE)
	default:
		return fmt.Sprintf("%.2f MB", float64(n)/bytefmt.MEGABYTE)
	}
}

// CompactBytes renders n in bytefmt's short form, e.g. "1.5K".
func CompactBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return bytefmt.ByteSize(uint64(n))
}

// StatusColor picks the color of a status code: 2xx cyan, 3xx blue,
// 4xx yellow and anything else red.
func StatusColor(status int) *color.Color {
	switch {
	case status >= 200 && status < 300:
		return color.New(color.FgCyan, color.Bold)
	case status >= 300 && status < 400:
		return color.New(color.FgBlue, color.Bold)
	case status >= 400 && status < 500:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

var methodColors = map[draft.Method]color.Attribute{
	draft.MethodGet:     color.FgCyan,
	draft.MethodPost:    color.FgBlue,
	draft.MethodPut:     color.FgYellow,
	draft.MethodPatch:   color.FgMagenta,
	draft.MethodDelete:  color.FgRed,
	draft.MethodHead:    color.FgHiBlack,
	draft.MethodOptions: color.FgGreen,
}

// MethodColor picks the color of a method badge.
func MethodColor(m draft.Method) *color.Color {
	attr, ok := methodColors[m]
	if !ok {
		attr = color.FgWhite
	}
	return color.New(attr, color.Bold)
}

// ApplyFilter selects path (gjson syntax) from JSON data. Objects and arrays
// are re-indented; scalars are printed bare.
func ApplyFilter(data, path string) (string, error) {
	if !gjson.Valid(data) {
		return "", fmt.Errorf("filter %q needs a JSON response", path)
	}
	result := gjson.Get(data, path)
	if !result.Exists() {
		return "", fmt.Errorf("filter %q matched nothing", path)
	}
	if result.IsObject() || result.IsArray() {
		return http.PrettyJSON([]byte(result.Raw))
	}
	return result.String(), nil
}

func enabledCount(es draft.Entries) int {
	n := 0
	for _, e := range es {
		if e.Enabled && strings.TrimSpace(e.Key) != "" {
			n++
		}
	}
	return n
}
