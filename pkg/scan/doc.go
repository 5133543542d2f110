// Package scan turns the stream of detections emitted by a capture surface into
// accepted scans. A capture surface reports the same barcode many times per
// second while it stays in frame; the Debouncer lets the first detection
// through and suppresses everything else for a fixed Window measured from that
// acceptance. The window is time based, so a different code shown during the
// window is dropped as well, and the same code shown after it is accepted
// again.
package scan
