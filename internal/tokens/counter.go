// Package tokens counts tokens in handler output for session telemetry.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used by chat-completion models.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens in text.
type Counter interface {
	Count(text string) int
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(text string) int

func (f CounterFunc) Count(text string) int { return f(text) }

// Tiktoken counts with a tiktoken encoding, loaded on first use. If the
// encoding cannot be loaded it falls back to Estimate.
type Tiktoken struct {
	encoding string
	once     sync.Once
	enc      *tiktoken.Tiktoken
	err      error
}

func NewTiktoken(encoding string) *Tiktoken {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &Tiktoken{encoding: encoding}
}

func (t *Tiktoken) load() error {
	t.once.Do(func() {
		t.enc, t.err = tiktoken.GetEncoding(t.encoding)
	})
	return t.err
}

func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}
	if err := t.load(); err != nil {
		return Estimate(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Err reports why the encoding could not be loaded, if it was tried.
func (t *Tiktoken) Err() error {
	return t.err
}

// Estimate assumes roughly four bytes per token.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		return 1
	}
	return n
}
