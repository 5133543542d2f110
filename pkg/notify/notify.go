// Package notify carries the user-facing outcome of an operation (a scan, a
// submission, a listing) from the component that produced it to whatever
// presentation is attached. Messages are rendered from pongo2 templates so
// deployments can localise them without touching code.
package notify

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
	KindInfo    Kind = "info"
)

// Notification is a dismissible, non-blocking message.
type Notification struct {
	Kind    Kind
	Key     MessageKey
	Title   string
	Message string
	// Fields holds server-side messages keyed by form field.
	Fields map[string][]string
	Err    error
}

// String renders a single-line summary.
func (n Notification) String() string {
	if n.Title == "" {
		return n.Message
	}
	if n.Message == "" {
		return n.Title
	}
	return n.Title + ": " + n.Message
}

// Notifier receives notifications. Implementations must not block the caller
// for long; they are invoked inline after network calls complete.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify calls f(ctx, n).
func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(context.Context, Notification) {})

// Multi fans a notification out to several notifiers.
func Multi(notifiers ...Notifier) Notifier {
	list := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			list = append(list, n)
		}
	}
	return NotifierFunc(func(ctx context.Context, n Notification) {
		for _, target := range list {
			target.Notify(ctx, n)
		}
	})
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Reset forgets every recorded notification.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.items = nil
	r.mu.Unlock()
}

// Theme holds the prefixes printed by WriterNotifier.
type Theme struct {
	SuccessPrefix string
	FailurePrefix string
	InfoPrefix    string
}

// DefaultTheme uses plain ASCII markers.
func DefaultTheme() Theme {
	return Theme{
		SuccessPrefix: "[ok]",
		FailurePrefix: "[error]",
		InfoPrefix:    "[info]",
	}
}

// WriterNotifier prints notifications to a writer, one block per message.
type WriterNotifier struct {
	mu    sync.Mutex
	w     io.Writer
	theme Theme
}

// NewWriterNotifier writes to w using theme.
func NewWriterNotifier(w io.Writer, theme Theme) *WriterNotifier {
	return &WriterNotifier{w: w, theme: theme}
}

// Notify implements Notifier. Write errors are ignored.
func (wn *WriterNotifier) Notify(_ context.Context, n Notification) {
	var b strings.Builder
	b.WriteString(wn.prefix(n.Kind))
	b.WriteString(" ")
	b.WriteString(n.String())
	b.WriteString("\n")

	fields := make([]string, 0, len(n.Fields))
	for name := range n.Fields {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	for _, name := range fields {
		fmt.Fprintf(&b, "  - %s: %s\n", name, strings.Join(n.Fields[name], "; "))
	}

	wn.mu.Lock()
	defer wn.mu.Unlock()
	_, _ = io.WriteString(wn.w, b.String())
}

func (wn *WriterNotifier) prefix(kind Kind) string {
	switch kind {
	case KindSuccess:
		return wn.theme.SuccessPrefix
	case KindFailure:
		return wn.theme.FailurePrefix
	default:
		return wn.theme.InfoPrefix
	}
}
