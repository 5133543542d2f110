package inventorystub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-scanform/pkg/contract"
)

// HTTPError lets guards pick the response status.
type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type createdResponse struct {
	Status  string `json:"status"`
	Message Record `json:"message"`
}

type listResponse struct {
	Message []Record `json:"message"`
}

type errorsResponse struct {
	Errors map[string][]string `json:"errors"`
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy

	contractOnce sync.Once
	embedded     *contract.Contract
	embeddedErr  error
)

func sanitizeText(raw string) string {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(raw)))
}

func defaultContract() (*contract.Contract, error) {
	contractOnce.Do(func() {
		embedded, embeddedErr = contract.Load(context.Background())
	})
	return embedded, embeddedErr
}

// NewHandler builds the products handler with default options plus overrides.
func NewHandler(fns ...OptionFn) http.Handler {
	return HandlerWithOptions(NewOptions(fns...))
}

// HandlerWithOptions serves GET and POST on opts.RoutePath.
func HandlerWithOptions(opts Options) http.Handler {
	router := mux.NewRouter()
	_, _ = RegisterRoutesWithOptions(router, "", opts)
	return router
}

type service struct {
	opts Options
}

func (s *service) list(w http.ResponseWriter, r *http.Request) {
	if !s.guard(w, r) {
		return
	}
	records, err := s.opts.Store.List(r.Context())
	if err != nil {
		s.opts.Logger.Error("list products", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []Record{}
	}
	writeJSON(w, http.StatusOK, listResponse{Message: records})
}

func (s *service) create(w http.ResponseWriter, r *http.Request) {
	if !s.guard(w, r) {
		return
	}

	c := s.opts.Contract
	if c == nil {
		loaded, err := defaultContract()
		if err != nil {
			s.opts.Logger.Error("load contract", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		c = loaded
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.opts.Logger.Info("product rejected: body too large", "limit", tooLarge.Limit)
			writeJSON(w, http.StatusRequestEntityTooLarge, errorsResponse{Errors: map[string][]string{
				contract.FormLevelKey: {fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)},
			}})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: map[string][]string{
			contract.FormLevelKey: {err.Error()},
		}})
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	if err := c.ValidateRequest(r.Context(), r, contract.ProductsPath); err != nil {
		var verr *contract.ValidationError
		if errors.As(err, &verr) {
			s.opts.Logger.Info("product rejected", "request_id", r.Header.Get("X-Request-ID"), "fields", len(verr.Fields))
			writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: verr.Fields})
			return
		}
		s.opts.Logger.Error("validate product", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var fields map[string]string
	if err := json.Unmarshal(raw, &fields); err != nil {
		writeJSON(w, http.StatusBadRequest, errorsResponse{Errors: map[string][]string{
			contract.FormLevelKey: {err.Error()},
		}})
		return
	}
	if s.opts.Sanitize {
		for k, v := range fields {
			fields[k] = sanitizeText(v)
		}
	}

	rec, err := s.opts.Store.Create(r.Context(), fields)
	if err != nil {
		s.opts.Logger.Error("store product", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	s.opts.Logger.Info("product stored", "id", rec["id"], "request_id", r.Header.Get("X-Request-ID"))
	writeJSON(w, http.StatusCreated, createdResponse{Status: "ok", Message: rec})
}

func (s *service) guard(w http.ResponseWriter, r *http.Request) bool {
	if s.opts.Guard == nil {
		return true
	}
	err := s.opts.Guard(r)
	if err == nil {
		return true
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}
