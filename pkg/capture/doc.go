// Package capture switches the entry screen between its permission, entry and
// scanning modes and owns the camera while scanning.
package capture
