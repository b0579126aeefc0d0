// Package loggertest provides a Logger that records messages for assertions.
package loggertest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bashhack/gitguard/internal/logger"
)

var _ logger.Logger = (*Recorder)(nil)

// Level identifies which Logger method produced an Entry.
type Level string

const (
	Info          Level = "info"
	Warning       Level = "warning"
	Error         Level = "error"
	InfoToUser    Level = "info-to-user"
	WarningToUser Level = "warning-to-user"
	Success       Level = "success"
	Status        Level = "status"
)

// Entry is one recorded message.
type Entry struct {
	Level   Level
	Message string
}

// Recorder implements logger.Logger and is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	closed  bool
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(level Level, format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (r *Recorder) Info(format string, args ...interface{}) { r.record(Info, format, args...) }

func (r *Recorder) Warning(format string, args ...interface{}) { r.record(Warning, format, args...) }

func (r *Recorder) Error(format string, args ...interface{}) { r.record(Error, format, args...) }

func (r *Recorder) InfoToUser(format string, args ...interface{}) {
	r.record(InfoToUser, format, args...)
}

func (r *Recorder) WarningToUser(format string, args ...interface{}) {
	r.record(WarningToUser, format, args...)
}

func (r *Recorder) Success(format string, args ...interface{}) { r.record(Success, format, args...) }

func (r *Recorder) StatusMessage(format string, args ...interface{}) {
	r.record(Status, format, args...)
}

// Close marks the Recorder closed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Messages returns the messages recorded at level, in order.
func (r *Recorder) Messages(level Level) []string {
	var out []string
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// Contains reports whether any message at level contains substr.
func (r *Recorder) Contains(level Level, substr string) bool {
	for _, msg := range r.Messages(level) {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}
