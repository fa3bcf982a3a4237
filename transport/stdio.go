package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/maxpert/pathglob/cfg"
)

// MaxLineBytes is the longest record a line source accepts
const MaxLineBytes = 4 << 20

// ErrLineTooLong is returned by LineSource.Receive in place of a record longer
// than MaxLineBytes. The line is discarded and reading continues.
var ErrLineTooLong = errors.New("line exceeds MaxLineBytes")

func init() {
	RegisterSource("stdio", func(config cfg.EndpointConfiguration) (Source, error) {
		if config.Path == "" || config.Path == "-" {
			return NewLineSource(io.NopCloser(os.Stdin)), nil
		}
		f, err := os.Open(config.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open source file: %w", err)
		}
		return NewLineSource(f), nil
	})

	RegisterSink("stdio", func(config cfg.EndpointConfiguration) (Sink, error) {
		if config.Path == "" || config.Path == "-" {
			return NewLineSink(nopWriteCloser{os.Stdout}), nil
		}
		f, err := os.OpenFile(config.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open sink file: %w", err)
		}
		return NewLineSink(f), nil
	})
}

type lineResult struct {
	msg Message
	err error
}

// LineSource reads newline-delimited records. Blank lines are skipped.
type LineSource struct {
	r       io.ReadCloser
	lines   chan lineResult
	done    chan struct{}
	closeMu sync.Once
}

// NewLineSource starts reading records from r
func NewLineSource(r io.ReadCloser) *LineSource {
	s := &LineSource{
		r:     r,
		lines: make(chan lineResult),
		done:  make(chan struct{}),
	}
	go s.scan()
	return s
}

func (s *LineSource) scan() {
	defer close(s.lines)

	reader := bufio.NewReaderSize(s.r, 64*1024)
	var buf []byte
	oversized := false
	for {
		chunk, err := reader.ReadSlice('\n')
		if !oversized {
			if len(buf)+len(chunk) > MaxLineBytes+1 {
				oversized, buf = true, buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil && err != io.EOF {
			s.send(lineResult{err: fmt.Errorf("failed to read line: %w", err)})
			return
		}
		if !s.emit(buf, oversized) || err == io.EOF {
			return
		}
		buf, oversized = buf[:0], false
	}
}

// emit sends one complete line, or ErrLineTooLong in its place
func (s *LineSource) emit(raw []byte, oversized bool) bool {
	raw = bytes.TrimSuffix(raw, []byte{'\n'})
	if oversized || len(raw) > MaxLineBytes {
		return s.send(lineResult{err: ErrLineTooLong})
	}
	line := bytes.TrimSpace(raw)
	if len(line) == 0 {
		return true
	}
	value := make([]byte, len(line))
	copy(value, line)
	return s.send(lineResult{msg: Message{Value: value}})
}

func (s *LineSource) send(res lineResult) bool {
	select {
	case s.lines <- res:
		return true
	case <-s.done:
		return false
	}
}

// Receive returns the next line
func (s *LineSource) Receive(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case res, ok := <-s.lines:
		if !ok {
			return Message{}, io.EOF
		}
		return res.msg, res.err
	}
}

// Ack is a no-op for line sources
func (s *LineSource) Ack(Message) error {
	return nil
}

// Close closes the underlying reader
func (s *LineSource) Close() error {
	var err error
	s.closeMu.Do(func() {
		close(s.done)
		err = s.r.Close()
	})
	return err
}

// LineSink writes each record followed by a newline
type LineSink struct {
	mu sync.Mutex
	w  *bufio.Writer
	c  io.Closer
}

// NewLineSink writes records to w
func NewLineSink(w io.WriteCloser) *LineSink {
	return &LineSink{w: bufio.NewWriter(w), c: w}
}

// Publish writes value as one line; topic and key are ignored
func (s *LineSink) Publish(_, _ string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(value); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	return s.w.Flush()
}

// Close flushes and closes the underlying writer
func (s *LineSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Flush(); err != nil {
		s.c.Close()
		return err
	}
	return s.c.Close()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
