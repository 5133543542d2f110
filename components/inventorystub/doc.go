// Package inventorystub provides a reference implementation of the garment
// inventory endpoint (GET and POST /api/products) backed by an in-memory
// store. Submissions are validated against the embedded OpenAPI contract and
// stripped of markup before they are stored.
//
// The handler is meant for local development and tests of the scan-to-submit
// flow; it is not a production inventory service.
package inventorystub
