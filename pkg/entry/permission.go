package entry

import (
	"context"
	"sync"
)

// ConsentPermission asks the operator for camera access and remembers the
// answer for the life of the process.
type ConsentPermission struct {
	driver  PromptDriver
	mu      sync.RWMutex
	granted bool
}

// NewConsentPermission returns a permission with the given initial grant.
func NewConsentPermission(driver PromptDriver, granted bool) *ConsentPermission {
	return &ConsentPermission{driver: driver, granted: granted}
}

// Granted implements capture.Permission.
func (p *ConsentPermission) Granted() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.granted
}

// Request implements capture.Permission.
func (p *ConsentPermission) Request(ctx context.Context) (bool, error) {
	if p.Granted() {
		return true, nil
	}
	ok, err := p.driver.Confirm(ctx, ConfirmConfig{
		Message: "¿Permitir el uso de la cámara?",
		Default: true,
	})
	if err != nil {
		return false, err
	}
	p.mu.Lock()
	p.granted = ok
	p.mu.Unlock()
	return ok, nil
}
