package inventory

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/goliatone/go-scanform/pkg/form"
)

// ErrInvalidResponse marks a 2xx reply whose body could not be understood.
var ErrInvalidResponse = errors.New("inventory: invalid response")

// StatusError reports a non-2xx reply from the inventory service.
type StatusError struct {
	Code   int
	Fields map[string][]string
	Err    error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("inventory: unexpected status %d %s", e.StatusCode(), http.StatusText(e.StatusCode()))
}

func (e StatusError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status, defaulting to 500.
func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// FieldErrors splits a server error payload into messages per form field and
// messages that apply to the whole record.
type FieldErrors struct {
	Fields map[form.Field][]string
	Form   []string
}

// Empty reports whether no message survived normalisation.
func (f FieldErrors) Empty() bool {
	return len(f.Fields) == 0 && len(f.Form) == 0
}

// MapFieldErrors normalises payload keys (plain names, dotted paths or JSON
// pointers such as "/body/barCode") onto form fields. Keys that name no
// field are kept as form-level messages.
func MapFieldErrors(payload map[string][]string) FieldErrors {
	mapping := FieldErrors{Fields: make(map[form.Field][]string)}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, raw := range keys {
		messages := normalizeMessages(payload[raw])
		if len(messages) == 0 {
			continue
		}
		field, ok := fieldFromPath(raw)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[field] = normalizeMessages(append(mapping.Fields[field], messages...))
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func fieldFromPath(raw string) (form.Field, bool) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "#")
	clean = strings.TrimPrefix(clean, "$")
	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/' || r == '[' || r == ']'
	})
	// the deepest segment naming a field wins
	for i := len(parts) - 1; i >= 0; i-- {
		segment := strings.ReplaceAll(parts[i], "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		if f, err := form.ParseField(segment); err == nil {
			return f, true
		}
	}
	return "", false
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
