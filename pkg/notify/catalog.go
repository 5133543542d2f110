package notify

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// MessageKey identifies a notification template.
type MessageKey string

const (
	KeySubmitSuccess      MessageKey = "submit_success"
	KeySubmitFailure      MessageKey = "submit_failure"
	KeyListSuccess        MessageKey = "list_success"
	KeyListFailure        MessageKey = "list_failure"
	KeyPermissionRequired MessageKey = "permission_required"
	KeyScanAccepted       MessageKey = "scan_accepted"
)

// Message is a pair of pongo2 templates. Values reach the templates as-is;
// pongo2 escapes HTML by default, so terminal templates should pipe variables
// through |safe.
type Message struct {
	Title string `yaml:"title" json:"title"`
	Body  string `yaml:"body" json:"body"`
}

// DefaultMessages returns the stock Spanish texts of the entry screen.
func DefaultMessages() map[MessageKey]Message {
	return map[MessageKey]Message{
		KeySubmitSuccess: {
			Title: "Éxito",
			Body:  "Prenda guardada correctamente.",
		},
		KeySubmitFailure: {
			Title: "Error",
			Body:  "No se pudo guardar la prenda. Intenta nuevamente.",
		},
		KeyListSuccess: {
			Title: "Productos",
			Body:  "{{ products|safe }}",
		},
		KeyListFailure: {
			Title: "Error",
			Body:  "No se pudo obtener los productos. Intenta nuevamente.",
		},
		KeyPermissionRequired: {
			Title: "Conceder permiso",
			Body:  "Es necesario el permiso de la camara para utilizar la aplicación",
		},
		KeyScanAccepted: {
			Title: "Código escaneado",
			Body:  "{{ code|safe }}",
		},
	}
}

type compiled struct {
	title *pongo2.Template
	body  *pongo2.Template
}

// Catalog renders notifications from compiled templates. It is safe for
// concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	templates map[MessageKey]compiled
}

// NewCatalog compiles the default messages with overrides applied on top.
// Empty override fields keep the default text.
func NewCatalog(overrides map[MessageKey]Message) (*Catalog, error) {
	messages := DefaultMessages()
	for key, msg := range overrides {
		base := messages[key]
		if strings.TrimSpace(msg.Title) != "" {
			base.Title = msg.Title
		}
		if strings.TrimSpace(msg.Body) != "" {
			base.Body = msg.Body
		}
		messages[key] = base
	}

	keys := make([]string, 0, len(messages))
	for key := range messages {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)

	c := &Catalog{templates: make(map[MessageKey]compiled, len(messages))}
	for _, raw := range keys {
		key := MessageKey(raw)
		msg := messages[key]
		title, err := pongo2.FromString(msg.Title)
		if err != nil {
			return nil, fmt.Errorf("notify: compile %s title: %w", key, err)
		}
		body, err := pongo2.FromString(msg.Body)
		if err != nil {
			return nil, fmt.Errorf("notify: compile %s body: %w", key, err)
		}
		c.templates[key] = compiled{title: title, body: body}
	}
	return c, nil
}

// MustCatalog panics when the catalog cannot be compiled.
func MustCatalog(overrides map[MessageKey]Message) *Catalog {
	c, err := NewCatalog(overrides)
	if err != nil {
		panic(err)
	}
	return c
}

// Render builds a notification of the given kind from the template key.
func (c *Catalog) Render(kind Kind, key MessageKey, data map[string]any) (Notification, error) {
	c.mu.RLock()
	tpl, ok := c.templates[key]
	c.mu.RUnlock()
	if !ok {
		return Notification{}, fmt.Errorf("notify: unknown message %q", key)
	}

	ctx := pongo2.Context{}
	for k, v := range data {
		ctx[k] = v
	}

	title, err := tpl.title.Execute(ctx)
	if err != nil {
		return Notification{}, fmt.Errorf("notify: render %s title: %w", key, err)
	}
	body, err := tpl.body.Execute(ctx)
	if err != nil {
		return Notification{}, fmt.Errorf("notify: render %s body: %w", key, err)
	}
	return Notification{
		Kind:    kind,
		Key:     key,
		Title:   strings.TrimSpace(title),
		Message: strings.TrimSpace(body),
	}, nil
}

// MustRender is Render that falls back to the bare key on template errors so
// a broken override never hides an outcome from the operator.
func (c *Catalog) MustRender(kind Kind, key MessageKey, data map[string]any) Notification {
	n, err := c.Render(kind, key, data)
	if err != nil {
		return Notification{Kind: kind, Key: key, Title: string(key), Message: err.Error()}
	}
	return n
}
