package capture

import (
	"context"
	"sync"
)

// Permission is the camera grant capability. The controller never assumes a
// grant without asking Granted.
type Permission interface {
	Granted() bool
	Request(ctx context.Context) (bool, error)
}

// StaticPermission is a permission whose grant is set by the host, e.g. a
// device where camera access is managed outside the application.
type StaticPermission struct {
	mu      sync.RWMutex
	granted bool
}

// NewStaticPermission returns a permission with the given initial grant.
func NewStaticPermission(granted bool) *StaticPermission {
	return &StaticPermission{granted: granted}
}

// Granted implements Permission.
func (p *StaticPermission) Granted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.granted
}

// Request implements Permission. It reports the current grant unchanged.
func (p *StaticPermission) Request(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return p.Granted(), nil
}

// Set changes the grant.
func (p *StaticPermission) Set(granted bool) {
	p.mu.Lock()
	p.granted = granted
	p.mu.Unlock()
}
