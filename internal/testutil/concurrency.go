package testutil

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/regger-zz/sas-translator/internal/lexer"
	"github.com/regger-zz/sas-translator/internal/token"
)

// SleepyTokenizer wraps the bundled lexer and blocks for Delay on sources
// containing Marker, or until the context is done. It records how many
// tokenizations are running at once.
type SleepyTokenizer struct {
	Marker string
	Delay  time.Duration

	mu      sync.Mutex
	running int
	peak    int
}

// Tokenize implements token.Tokenizer.
func (s *SleepyTokenizer) Tokenize(ctx context.Context, src []byte) (*token.RawStream, error) {
	s.mu.Lock()
	s.running++
	s.peak = max(s.peak, s.running)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running--
		s.mu.Unlock()
	}()

	if s.Marker != "" && bytes.Contains(src, []byte(s.Marker)) {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return lexer.NewSAS().Tokenize(ctx, src)
}

// Peak is the highest number of concurrent Tokenize calls observed.
func (s *SleepyTokenizer) Peak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}
