package logger

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"sync"
)

var errSinkClosed = errors.New("logger: sink closed")

type sinkOp struct {
	line []byte
	ack  chan error
}

// lineSink fans log lines out to every writer from a single goroutine.
// Buffers are flushed whenever the queue drains, on Flush, and on Close.
type lineSink struct {
	ops  chan sinkOp
	done chan struct{}
	outs []*bufio.Writer

	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error
}

func newLineSink(writers []io.Writer, bufSize int) *lineSink {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	s := &lineSink{
		ops:  make(chan sinkOp, 256),
		done: make(chan struct{}),
	}
	for _, w := range writers {
		if w != nil {
			s.outs = append(s.outs, bufio.NewWriterSize(w, bufSize))
		}
	}
	go s.run()
	return s
}

func (s *lineSink) run() {
	defer close(s.done)
	for op := range s.ops {
		if op.ack != nil {
			op.ack <- s.flush()
			continue
		}
		for _, out := range s.outs {
			if _, err := out.Write(op.line); err != nil {
				s.fail(err)
			}
		}
		if len(s.ops) == 0 {
			s.fail(s.flush())
		}
	}
	s.fail(s.flush())
}

// Write queues a copy of p. It blocks while the queue is full.
func (s *lineSink) Write(p []byte) error {
	if err := s.Err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errSinkClosed
	}
	s.ops <- sinkOp{line: bytes.Clone(p)}
	return nil
}

// Flush waits until every queued line has reached the writers.
func (s *lineSink) Flush() error {
	if err := s.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return errSinkClosed
	}
	ack := make(chan error, 1)
	s.ops <- sinkOp{ack: ack}
	s.mu.RUnlock()
	return <-ack
}

// Close drains the queue and returns the first write error seen.
func (s *lineSink) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ops)
	}
	s.mu.Unlock()
	<-s.done
	return s.Err()
}

// Err reports the first write error. The sink refuses new lines after one.
func (s *lineSink) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *lineSink) fail(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
}

func (s *lineSink) flush() error {
	var errs []error
	for _, out := range s.outs {
		if err := out.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
