// Package stream decodes the server-sent-event body a handler produces into
// content deltas and folds them into one growing text buffer.
//
// The accepted wire format is the subset handlers actually emit:
//
//	data: {"choices":[{"delta":{"content":"..."}}]}
//	data: [DONE]
//
// Lines without the "data: " prefix (comments, event names, keep-alives)
// are ignored. A payload that is not valid JSON, or that has no string at
// choices[0].delta.content, is dropped without surfacing an error.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/buger/jsonparser"
)

const (
	// DataPrefix marks a line that carries a payload.
	DataPrefix = "data: "
	// DoneSentinel is the payload that terminates the stream.
	DoneSentinel = "[DONE]"
)

var deltaPath = []string{"choices", "[0]", "delta", "content"}

// Frame is one decoded protocol unit.
type Frame struct {
	// Delta is the content fragment carried by the frame.
	Delta string
	// Done is set on the terminal sentinel frame.
	Done bool
}

// Reader yields content frames from a stream body. It is finite and cannot be
// restarted: once the sentinel or the end of the body has been seen, every
// subsequent call to Next returns io.EOF.
type Reader struct {
	br   *bufio.Reader
	done bool
	err  error
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Next returns the next frame with a non-empty delta. It returns io.EOF at the
// end of the stream and ctx.Err() if ctx is cancelled between lines.
func (r *Reader) Next(ctx context.Context) (Frame, error) {
	if r.done {
		return Frame{}, r.err
	}
	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}

		line, readErr := r.br.ReadBytes('\n')
		if len(line) > 0 {
			frame, ok := decodeLine(line)
			if ok && frame.Done {
				r.finish(io.EOF)
				return Frame{}, io.EOF
			}
			if ok {
				if readErr != nil && !errors.Is(readErr, io.EOF) {
					r.finish(readErr)
				}
				return frame, nil
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				r.finish(io.EOF)
				return Frame{}, io.EOF
			}
			// A body closed because its request context was cancelled
			// reports a transport error; prefer the context's reason.
			if ctxErr := ctx.Err(); ctxErr != nil {
				readErr = ctxErr
			}
			r.finish(readErr)
			return Frame{}, readErr
		}
	}
}

func (r *Reader) finish(err error) {
	r.done = true
	r.err = err
}

// decodeLine reports whether line produced a frame: either a delta or the
// terminal sentinel.
func decodeLine(line []byte) (Frame, bool) {
	line = bytes.TrimRight(line, "\r\n")
	if !bytes.HasPrefix(line, []byte(DataPrefix)) {
		return Frame{}, false
	}
	payload := bytes.TrimSpace(line[len(DataPrefix):])
	if string(payload) == DoneSentinel {
		return Frame{Done: true}, true
	}

	// jsonparser only scans for the path, so a truncated or trailing-garbage
	// payload would otherwise still yield its delta.
	if !json.Valid(payload) {
		return Frame{}, false
	}
	delta, err := jsonparser.GetString(payload, deltaPath...)
	if err != nil || delta == "" {
		return Frame{}, false
	}
	return Frame{Delta: delta}, true
}

// Collect drains r into an Accumulator, calling onDelta (when non-nil) for each
// delta in arrival order, and returns the finalized text. On error the text
// gathered so far is returned alongside it.
func Collect(ctx context.Context, r io.Reader, onDelta func(string)) (string, error) {
	reader := NewReader(r)
	acc := NewAccumulator()
	for {
		frame, err := reader.Next(ctx)
		if errors.Is(err, io.EOF) {
			return acc.Finalize(), nil
		}
		if err != nil {
			return acc.Finalize(), err
		}
		acc.Append(frame.Delta)
		if onDelta != nil {
			onDelta(frame.Delta)
		}
	}
}
