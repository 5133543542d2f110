package inventorystub

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// MountPath returns the full mount path for the products route under basePath.
func MountPath(basePath string, fns ...OptionFn) string {
	opts := NewOptions(fns...)
	return mountPath(basePath, opts.RoutePath)
}

// RegisterRoutes registers the products routes under basePath on router.
func RegisterRoutes(router *mux.Router, basePath string, fns ...OptionFn) (string, error) {
	return RegisterRoutesWithOptions(router, basePath, NewOptions(fns...))
}

// RegisterRoutesWithOptions registers GET and POST handlers using a
// pre-built Options value. Other methods on the path answer 405.
func RegisterRoutesWithOptions(router *mux.Router, basePath string, opts Options) (string, error) {
	if router == nil {
		return "", fmt.Errorf("inventorystub: missing router")
	}
	opts = NewOptions(func(o *Options) { *o = opts })
	svc := &service{opts: opts}

	pattern := mountPath(basePath, opts.RoutePath)
	router.HandleFunc(pattern, svc.list).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc(pattern, svc.create).Methods(http.MethodPost)
	return pattern, nil
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)

	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}

	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	basePath = strings.TrimRight(basePath, "/")
	return basePath + routePath
}
