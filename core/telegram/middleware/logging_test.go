package middleware

import (
	"testing"
	"time"
)

func TestSeenUpdatesFirst(t *testing.T) {
	s := &seenUpdates{ttl: time.Second, ids: make(map[int]time.Time)}
	now := time.Unix(1000, 0)
	if !s.first(1, now) {
		t.Fatal("first sighting rejected")
	}
	if s.first(1, now.Add(500*time.Millisecond)) {
		t.Fatal("duplicate within ttl accepted")
	}
	if !s.first(2, now) {
		t.Fatal("other id rejected")
	}
	if !s.first(1, now.Add(2*time.Second)) {
		t.Fatal("expired id rejected")
	}
	if _, ok := s.ids[2]; ok {
		t.Fatal("expired id 2 not swept")
	}
}
