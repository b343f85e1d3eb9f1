package service

import (
	"sync"
	"time"
)

// recordingSink captures metrics emitted by services under test.
type recordingSink struct {
	mu     sync.Mutex
	counts map[string][]map[string]string
	gauges map[string]float64
}

func newRecordingSink() *recordingSink {
	return &recordingSink{counts: map[string][]map[string]string{}, gauges: map[string]float64{}}
}

func (s *recordingSink) Count(name string, _ int64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[name] = append(s.counts[name], tags)
}

func (s *recordingSink) Gauge(name string, value float64, _ map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gauges[name] = value
}

func (s *recordingSink) Timing(string, time.Duration, map[string]string) {}

func (s *recordingSink) tags(name string) []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]string(nil), s.counts[name]...)
}

func (s *recordingSink) gauge(name string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gauges[name]
}
