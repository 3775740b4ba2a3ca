package http

import (
	"github.com/goccy/go-json"
)

// Descriptor is the uniform result of one dispatch: either a failure
// (Error set, with Kind and Message) or a normalized response.
type Descriptor struct {
	Error   bool
	Kind    ErrorKind
	Message string

	Status     int
	StatusText string
	// Time is the elapsed wall-clock time in milliseconds.
	Time int64
	// Size is the UTF-8 byte length of Data.
	Size     int
	WireSize int64
	Data     string
	Headers  map[string]string
}

// Failure builds the failure variant.
func Failure(kind ErrorKind, message string) Descriptor {
	if message == "" {
		message = "request failed"
	}
	return Descriptor{Error: true, Kind: kind, Message: message}
}

func (d Descriptor) IsSuccess() bool {
	return !d.Error && d.Status >= 200 && d.Status < 300
}

func (d Descriptor) IsRedirect() bool {
	return !d.Error && d.Status >= 300 && d.Status < 400
}

func (d Descriptor) IsClientError() bool {
	return !d.Error && d.Status >= 400 && d.Status < 500
}

func (d Descriptor) IsServerError() bool {
	return !d.Error && d.Status >= 500
}

type failureJSON struct {
	Error   bool      `json:"error"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

type successJSON struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Time       int64             `json:"time"`
	Size       int               `json:"size"`
	WireSize   int64             `json:"wireSize"`
	Data       string            `json:"data"`
	Headers    map[string]string `json:"headers"`
}

// MarshalJSON writes only the fields of the active variant.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	if d.Error {
		return json.Marshal(failureJSON{Error: true, Kind: d.Kind, Message: d.Message})
	}
	headers := d.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	return json.Marshal(successJSON{
		Status:     d.Status,
		StatusText: d.StatusText,
		Time:       d.Time,
		Size:       d.Size,
		WireSize:   d.WireSize,
		Data:       d.Data,
		Headers:    headers,
	})
}
