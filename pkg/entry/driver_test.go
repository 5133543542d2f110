package entry

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInRange(t *testing.T) {
	got := inRange([]int{-1, 0, 2, 3, 5}, 4)
	if diff := cmp.Diff([]int{0, 2, 3}, got); diff != "" {
		t.Fatalf("indices mismatch (-want +got):\n%s", diff)
	}
	if got := inRange(nil, 3); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestSurveyDriver_InfoWritesLine(t *testing.T) {
	var buf bytes.Buffer
	driver := NewSurveyDriver(&buf)
	if err := driver.Info(context.Background(), "Código escaneado: 123"); err != nil {
		t.Fatalf("info: %v", err)
	}
	if buf.String() != "Código escaneado: 123\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestSurveyDriver_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	driver := NewSurveyDriver(&bytes.Buffer{})
	if _, err := driver.Select(ctx, SelectConfig{Options: []string{"a"}}); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := driver.Info(ctx, "x"); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
