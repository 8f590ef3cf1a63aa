// Package notify is the user-facing feedback boundary. The catalog reports
// terminal outcomes here; nothing in this package feeds back into control
// flow.
package notify

import (
	"fmt"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Sink receives outcome notifications.
type Sink interface {
	Notify(kind Kind, title, description string)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(kind Kind, title, description string)

func (f SinkFunc) Notify(kind Kind, title, description string) { f(kind, title, description) }

// Discard drops every notification.
var Discard Sink = SinkFunc(func(Kind, string, string) {})

// LogSink writes each notification as a logrus entry.
type LogSink struct {
	Logger log.FieldLogger
}

// NewLogSink returns a LogSink on the standard logrus logger.
func NewLogSink() *LogSink {
	return &LogSink{Logger: log.StandardLogger()}
}

func (s *LogSink) Notify(kind Kind, title, description string) {
	entry := s.Logger.WithFields(log.Fields{
		"kind":        kind,
		"description": description,
	})
	if kind == KindError {
		entry.Warn(title)
		return
	}
	entry.Info(title)
}

// WriterSink prints one line per notification, e.g. for a terminal.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Notify(kind Kind, title, description string) {
	mark := "✓"
	if kind == KindError {
		mark = "✗"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%s %s: %s\n", mark, title, description)
}

// Multi fans a notification out to every sink in order.
type Multi []Sink

func (m Multi) Notify(kind Kind, title, description string) {
	for _, s := range m {
		s.Notify(kind, title, description)
	}
}
