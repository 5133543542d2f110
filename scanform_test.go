package scanform_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-scanform"
	"github.com/goliatone/go-scanform/pkg/capture"
	"github.com/goliatone/go-scanform/pkg/entry"
	"github.com/goliatone/go-scanform/pkg/form"
	"github.com/goliatone/go-scanform/pkg/notify"
	"github.com/goliatone/go-scanform/pkg/scan"
	"github.com/goliatone/go-scanform/pkg/testsupport"
)

func TestSession_ScanFillSubmitList(t *testing.T) {
	srv, store := testsupport.NewStubServer(t)
	feed := capture.NewFeed()
	rec := &notify.Recorder{}

	session, err := scanform.NewSession(
		scanform.WithBaseURL(srv.URL),
		scanform.WithHTTPClient(srv.Client()),
		scanform.WithCamera(feed),
		scanform.WithNotifier(rec),
	)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if session.Screen != nil {
		t.Fatalf("screen should only exist with a prompt driver")
	}

	ctx := context.Background()
	if err := session.Controller.OpenScanner(ctx); err != nil {
		t.Fatalf("open scanner: %v", err)
	}
	feed.Emit(scan.Event{Payload: "7501234567890", Symbology: scan.SymbologyEAN13})
	feed.Emit(scan.Event{Payload: "7501234567890", Symbology: scan.SymbologyEAN13})

	values := testsupport.FullValues()
	delete(values, form.BarCode)
	session.Form.Apply(values)

	if _, err := session.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one stored record, got %d", store.Len())
	}
	if !session.Form.Snapshot().Equal(testsupport.FullSnapshot()) {
		t.Fatalf("form must keep its values after submitting")
	}

	records, err := session.Client.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0]["barCode"] != "7501234567890" {
		t.Fatalf("unexpected records %v", records)
	}

	kinds := []notify.Kind{}
	for _, n := range rec.All() {
		kinds = append(kinds, n.Kind)
	}
	if len(kinds) != 2 || kinds[0] != notify.KindSuccess || kinds[1] != notify.KindInfo {
		t.Fatalf("unexpected notifications %v", kinds)
	}
}

func TestSession_SymbologyFilter(t *testing.T) {
	feed := capture.NewFeed()
	session, err := scanform.NewSession(
		scanform.WithCamera(feed),
		scanform.WithSymbologies(scan.SymbologyEAN13),
	)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := session.Controller.OpenScanner(context.Background()); err != nil {
		t.Fatalf("open scanner: %v", err)
	}
	feed.Emit(scan.Event{Payload: "https://example.com", Symbology: scan.SymbologyQR})
	if got := session.Controller.State(); got != capture.StateScanning {
		t.Fatalf("qr code should be ignored, state %s", got)
	}
	feed.Emit(scan.Event{Payload: "123", Symbology: scan.SymbologyEAN13})
	if got := session.Form.Value(form.BarCode); got != "123" {
		t.Fatalf("expected ean13 accepted, got %q", got)
	}
}

func TestSession_RunWithoutDriver(t *testing.T) {
	session, err := scanform.NewSession()
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := session.Run(context.Background()); err == nil {
		t.Fatalf("expected error without a prompt driver")
	}
}

func TestSession_InvalidMessages(t *testing.T) {
	_, err := scanform.NewSession(scanform.WithMessages(map[notify.MessageKey]notify.Message{
		notify.KeySubmitSuccess: {Body: "{% if %}"},
	}))
	if err == nil {
		t.Fatalf("expected template error")
	}
	if errors.Unwrap(err) == nil {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

// scriptedDriver answers menus from a list and records notices.
type scriptedDriver struct {
	menu    []int
	inputs  []string
	notices []string
}

func (d *scriptedDriver) Input(context.Context, entry.InputConfig) (string, error) {
	if len(d.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	v := d.inputs[0]
	d.inputs = d.inputs[1:]
	return v, nil
}

func (d *scriptedDriver) Confirm(context.Context, entry.ConfirmConfig) (bool, error) {
	return false, errors.New("no confirm scripted")
}

func (d *scriptedDriver) Select(context.Context, entry.SelectConfig) (int, error) {
	if len(d.menu) == 0 {
		return -1, errors.New("no select scripted")
	}
	v := d.menu[0]
	d.menu = d.menu[1:]
	return v, nil
}

func (d *scriptedDriver) MultiSelect(context.Context, entry.SelectConfig) ([]int, error) {
	return nil, errors.New("no multiselect scripted")
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.notices = append(d.notices, msg)
	return nil
}

func TestSession_RunTypedCodeWithSymbologyFilter(t *testing.T) {
	cases := []struct {
		name      string
		options   []scanform.Option
		wantCode  string
		rejection bool
	}{
		{
			name:     "untagged typed code passes the filter",
			options:  []scanform.Option{scanform.WithSymbologies(scan.SymbologyQR)},
			wantCode: "https://x/qr-code",
		},
		{
			name: "typed code tagged with an enabled symbology",
			options: []scanform.Option{
				scanform.WithSymbologies(scan.SymbologyQR),
				scanform.WithScanSymbology(scan.SymbologyQR),
			},
			wantCode: "https://x/qr-code",
		},
		{
			name: "typed code tagged with a disabled symbology",
			options: []scanform.Option{
				scanform.WithSymbologies(scan.SymbologyQR),
				scanform.WithScanSymbology(scan.SymbologyCode128),
			},
			rejection: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			driver := &scriptedDriver{
				menu:   []int{int(entry.ActionScan), int(entry.ActionExit)},
				inputs: []string{"https://x/qr-code"},
			}
			session, err := scanform.NewSession(append(tc.options, scanform.WithPromptDriver(driver))...)
			if err != nil {
				t.Fatalf("new session: %v", err)
			}
			if err := session.Run(context.Background()); err != nil {
				t.Fatalf("run: %v", err)
			}
			if got := session.Form.Value(form.BarCode); got != tc.wantCode {
				t.Fatalf("expected barcode %q, got %q", tc.wantCode, got)
			}
			rejected := false
			for _, msg := range driver.notices {
				if msg == "Código no reconocido." {
					rejected = true
				}
			}
			if rejected != tc.rejection {
				t.Fatalf("rejection notice = %v, want %v (%v)", rejected, tc.rejection, driver.notices)
			}
		})
	}
}
