package testutil

import (
	"fmt"
	"sync"
)

// Sessions hands out numbered session tokens: "<prefix>-1", "<prefix>-2", ...
// Two generators with the same prefix produce the same sequence, so logs
// and traces of a test run are reproducible.
//
// Safe for concurrent use.
type Sessions struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSessions creates a generator. An empty prefix uses "session".
func NewSessions(prefix string) *Sessions {
	if prefix == "" {
		prefix = "session"
	}
	return &Sessions{prefix: prefix}
}

// Generate returns the next token.
func (s *Sessions) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return fmt.Sprintf("%s-%d", s.prefix, s.seq)
}

// Issued returns how many tokens were handed out.
func (s *Sessions) Issued() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Reset restarts the sequence at 1.
func (s *Sessions) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}
