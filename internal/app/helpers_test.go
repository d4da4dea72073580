package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/core"
	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/domain"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// sequentialCodes yields 000001, 000002, ... Callers hold the registry lock.
func sequentialCodes() func() domain.Code {
	n := 0
	return func() domain.Code {
		n++
		return domain.Code(fmt.Sprintf("%06d", n))
	}
}

// scriptedCodes replays codes, repeating the last one forever.
func scriptedCodes(codes ...domain.Code) func() domain.Code {
	i := 0
	return func() domain.Code {
		c := codes[min(i, len(codes)-1)]
		i++
		return c
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []core.Event
}

func (s *recordingSink) Publish(_ domain.Code, ev core.Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *recordingSink) types() []core.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.EventType, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Type)
	}
	return out
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }
