package env

import (
	"os"
	"strings"
)

// MergeVariables combines sources left to right; later sources win.
func MergeVariables(sources ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// StringVariables converts dotenv output for MergeVariables.
func StringVariables(vars map[string]string) map[string]any {
	result := make(map[string]any, len(vars))
	for k, v := range vars {
		result[k] = v
	}
	return result
}

// LoadSystemEnv returns OS environment variables whose names start with
// prefix, keyed by the remainder of the name. An empty prefix returns all.
func LoadSystemEnv(prefix string) map[string]any {
	result := make(map[string]any)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
			continue
		}
		if rest, found := strings.CutPrefix(key, prefix); found && rest != "" {
			result[rest] = value
		}
	}
	return result
}
