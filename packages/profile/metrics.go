package profile

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/abdul-hamid-achik/hitdraft/packages/http"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Metrics aggregates the descriptors of a profile run.
type Metrics struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
	total     int64
	failures  int64
	statuses  map[int]int64
	kinds     map[http.ErrorKind]int64
	bytes     int64
}

func NewMetrics() *Metrics {
	return &Metrics{
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
		statuses:  make(map[int]int64),
		kinds:     make(map[http.ErrorKind]int64),
	}
}

// Record adds one dispatch that took elapsed and produced d.
func (m *Metrics) Record(elapsed time.Duration, d http.Descriptor) {
	us := elapsed.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	_ = m.histogram.RecordValue(us)
	if d.Error {
		m.failures++
		m.kinds[d.Kind]++
		return
	}
	m.statuses[d.Status]++
	m.bytes += int64(d.Size)
}

// Report is the summary of a run.
type Report struct {
	Total    int64         `json:"total"`
	Success  int64         `json:"success"`
	Failures int64         `json:"failures"`
	Duration time.Duration `json:"duration"`
	RPS      float64       `json:"rps"`
	Bytes    int64         `json:"bytes"`

	Min    time.Duration `json:"min"`
	Mean   time.Duration `json:"mean"`
	P50    time.Duration `json:"p50"`
	P90    time.Duration `json:"p90"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
	Max    time.Duration `json:"max"`
	StdDev time.Duration `json:"stdDev"`

	Statuses map[int]int64            `json:"statuses"`
	Kinds    map[http.ErrorKind]int64 `json:"failureKinds,omitempty"`
}

// Report summarizes everything recorded so far over a run of duration d.
func (m *Metrics) Report(d time.Duration) *Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := &Report{
		Total:    m.total,
		Success:  m.total - m.failures,
		Failures: m.failures,
		Duration: d,
		Bytes:    m.bytes,
		Statuses: make(map[int]int64, len(m.statuses)),
		Kinds:    make(map[http.ErrorKind]int64, len(m.kinds)),
	}
	for k, v := range m.statuses {
		r.Statuses[k] = v
	}
	for k, v := range m.kinds {
		r.Kinds[k] = v
	}
	if d > 0 {
		r.RPS = float64(m.total) / d.Seconds()
	}
	if m.total == 0 {
		return r
	}

	r.Min = usToDuration(m.histogram.Min())
	r.Max = usToDuration(m.histogram.Max())
	r.Mean = time.Duration(m.histogram.Mean() * float64(time.Microsecond))
	r.StdDev = time.Duration(m.histogram.StdDev() * float64(time.Microsecond))
	r.P50 = usToDuration(m.histogram.ValueAtQuantile(50))
	r.P90 = usToDuration(m.histogram.ValueAtQuantile(90))
	r.P95 = usToDuration(m.histogram.ValueAtQuantile(95))
	r.P99 = usToDuration(m.histogram.ValueAtQuantile(99))
	return r
}

func usToDuration(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}
