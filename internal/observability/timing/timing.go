// Package timing appends query execution times to a CSV log.
package timing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"
)

var header = []string{"timestamp", "operation", "seconds"}

// Log writes one `timestamp,operation,seconds` line per recorded query.
// It is safe for concurrent use. A nil *Log discards records.
type Log struct {
	mu     sync.Mutex
	writer *csv.Writer
	closer io.Closer
	now    func() time.Time
}

// Open appends to the CSV file at path, writing the header when the file is new.
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, errors.New("timing: empty path")
	}
	info, statErr := os.Stat(path)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("timing: open %s: %w", path, err)
	}
	l := newLog(file, file)
	if statErr != nil || info.Size() == 0 {
		if err := l.writeRow(header); err != nil {
			_ = file.Close()
			return nil, err
		}
	}
	return l, nil
}

// NewWriter writes records to w without a header.
func NewWriter(w io.Writer) *Log {
	return newLog(w, nil)
}

func newLog(w io.Writer, closer io.Closer) *Log {
	return &Log{writer: csv.NewWriter(w), closer: closer, now: time.Now}
}

// Record appends the execution time of an operation.
func (l *Log) Record(operation string, duration time.Duration) error {
	if l == nil {
		return nil
	}
	return l.writeRow([]string{
		l.now().UTC().Format(time.RFC3339Nano),
		operation,
		strconv.FormatFloat(duration.Seconds(), 'f', 6, 64),
	})
}

func (l *Log) writeRow(row []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.writer.Write(row); err != nil {
		return fmt.Errorf("timing: write: %w", err)
	}
	l.writer.Flush()
	return l.writer.Error()
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer.Flush()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
