package sink

import (
	"context"
	"io"
	"sync"

	"github.com/thermostart/otdecode/pkg/message"
)

// JSONL writes each record as one line of flat JSON.
type JSONL struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

// NewJSONL creates a JSONL sink writing to w. If w is an io.Closer it is
// closed by Close.
func NewJSONL(w io.Writer) *JSONL {
	j := &JSONL{w: w}
	if c, ok := w.(io.Closer); ok {
		j.closer = c
	}
	return j
}

// Write implements Sink.
func (j *JSONL) Write(_ context.Context, rec message.Record) error {
	line, err := rec.MarshalJSON()
	if err != nil {
		return err
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.w.Write(line)
	return err
}

// Close implements Sink.
func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closer == nil {
		return nil
	}
	c := j.closer
	j.closer = nil
	return c.Close()
}

var _ Sink = (*JSONL)(nil)
