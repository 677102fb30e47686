package utils

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// LineStamper is an io.Writer that prefixes each complete line with a sequence
// number and a timestamp. Partial lines are held until a newline or Close.
type LineStamper struct {
	mu     sync.Mutex
	target io.Writer
	seq    atomic.Uint64
	buf    bytes.Buffer
	now    func() time.Time
}

func NewLineStamper(target io.Writer) *LineStamper {
	return &LineStamper{target: target, now: time.Now}
}

// Write reports len(p) on success, matching io.Writer semantics for the caller.
func (s *LineStamper) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.Write(p)
	for {
		idx := bytes.IndexByte(s.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimRight(s.buf.Next(idx+1), "\r\n")
		if err := s.writeLine(line); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (s *LineStamper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buf.Len() == 0 {
		return nil
	}
	line := append([]byte(nil), s.buf.Bytes()...)
	s.buf.Reset()
	return s.writeLine(line)
}

func (s *LineStamper) writeLine(line []byte) error {
	n := s.seq.Add(1)
	_, err := fmt.Fprintf(s.target, "line=%d time=%s %s\n", n, s.now().Format(time.RFC3339), line)
	return err
}
