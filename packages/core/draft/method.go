package draft

import (
	"fmt"
	"strings"
)

// Method is an HTTP method supported by the composer.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// Methods lists the supported methods in display order.
var Methods = []Method{
	MethodGet,
	MethodPost,
	MethodPut,
	MethodPatch,
	MethodDelete,
	MethodHead,
	MethodOptions,
}

// ParseMethod resolves s case-insensitively to a supported method.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", &InputError{Field: "method", Message: fmt.Sprintf("unsupported method %q", s)}
}

// AllowsBody reports whether a body is attached when sending with m.
func (m Method) AllowsBody() bool {
	switch m {
	case MethodPost, MethodPut, MethodPatch:
		return true
	}
	return false
}

func (m Method) String() string {
	return string(m)
}

// UnmarshalText lets draft files and JSON spell methods in any case.
func (m *Method) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*m = MethodGet
		return nil
	}
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
