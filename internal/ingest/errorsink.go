package ingest

import (
	"bufio"
	"os"
	"strings"
)

// ErrorSink is the append-only record of rejected rows. Each rejected row is
// written as one line holding the original field values (with the delimiter
// stripped out of them) plus the rejection reason, while an in-memory counter
// per reason is kept for the final summary.
type ErrorSink struct {
	file   *os.File
	writer *bufio.Writer
	counts map[string]int64
	failed int64
	closed bool
}

// NewErrorSink creates the error report file in dir. An empty dir falls back
// to the system temp directory.
func NewErrorSink(dir string) (*ErrorSink, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	file, err := os.CreateTemp(dir, "rejected-rows-*.csv")
	if err != nil {
		return nil, err
	}

	return &ErrorSink{
		file:   file,
		writer: bufio.NewWriter(file),
		counts: make(map[string]int64),
	}, nil
}

// Append records one rejected row with its reason.
func (s *ErrorSink) Append(fields []string, reason string) error {
	safe := make([]string, len(fields))
	for i, field := range fields {
		// strip the delimiter so the report line stays parseable
		safe[i] = strings.ReplaceAll(field, ",", "")
	}

	line := strings.Join(safe, ",") + "," + reason + "\n"
	if _, err := s.writer.WriteString(line); err != nil {
		return err
	}

	s.counts[reason]++
	s.failed++
	return nil
}

// Failed returns the number of rows recorded so far.
func (s *ErrorSink) Failed() int64 {
	return s.failed
}

// Counts returns the per-reason tallies. The counts always sum to Failed.
func (s *ErrorSink) Counts() map[string]int64 {
	return s.counts
}

// Path returns the location of the error report file.
func (s *ErrorSink) Path() string {
	return s.file.Name()
}

// Close flushes and closes the report file. Close is idempotent.
func (s *ErrorSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.writer.Flush(); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}
