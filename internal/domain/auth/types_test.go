package auth

import (
	"testing"
	"time"
)

func TestSession_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{name: "future", expiresAt: now.Add(time.Minute), want: false},
		{name: "exactly now", expiresAt: now, want: true},
		{name: "past", expiresAt: now.Add(-time.Second), want: true},
		{name: "no expiry", expiresAt: time.Time{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{ID: "s", ExpiresAt: tt.expiresAt}
			if got := s.Expired(now); got != tt.want {
				t.Fatalf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}
