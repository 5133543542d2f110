package inventorystub

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/goliatone/go-scanform/pkg/contract"
)

// GuardFunc may reject a request before it reaches the store. Returning an
// HTTPError selects the response status.
type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath    string
	MaxBodyBytes int64
	Guard        GuardFunc
	Store        Store
	Contract     *contract.Contract
	// Sanitize strips markup from submitted values before they are stored.
	Sanitize bool
	Logger   *slog.Logger
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:    contract.ProductsPath,
		MaxBodyBytes: 1 << 20,
		Sanitize:     true,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = contract.ProductsPath
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithMaxBodyBytes(limit int64) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxBodyBytes = limit
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithStore(store Store) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Store = store
	}
}

// WithContract validates submissions against c. Without it the embedded
// document is loaded on first use.
func WithContract(c *contract.Contract) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Contract = c
	}
}

func WithSanitize(enabled bool) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Sanitize = enabled
	}
}

func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}
