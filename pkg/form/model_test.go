package form_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-scanform/pkg/form"
)

func TestModel_SetIsIdempotent(t *testing.T) {
	once := form.New()
	once.Set(form.GarmentName, "Camisa")

	twice := form.New()
	twice.Set(form.GarmentName, "Camisa")
	twice.Set(form.GarmentName, "Camisa")

	if !once.Snapshot().Equal(twice.Snapshot()) {
		t.Fatalf("expected identical state, got %v vs %v", once.Snapshot().Map(), twice.Snapshot().Map())
	}
}

func TestModel_SetOverwritesWithoutTouchingOtherFields(t *testing.T) {
	m := form.New()
	m.Set(form.BarCode, "111")
	m.Set(form.FabricType, "Algodón")
	m.Set(form.BarCode, "222")

	if got := m.Value(form.BarCode); got != "222" {
		t.Fatalf("expected overwrite, got %q", got)
	}
	if got := m.Value(form.FabricType); got != "Algodón" {
		t.Fatalf("expected other field untouched, got %q", got)
	}
}

func TestModel_UnknownFieldIgnored(t *testing.T) {
	m := form.New()
	m.Set(form.Field("precio"), "10")
	if _, ok := m.Snapshot().Map()["precio"]; ok {
		t.Fatalf("unknown field leaked into snapshot")
	}
}

func TestModel_ZeroValueIsUsable(t *testing.T) {
	var m form.Model
	if got := m.Value(form.BarCode); got != "" {
		t.Fatalf("expected empty barcode, got %q", got)
	}
	m.Set(form.BarCode, "123")
	m.Apply(map[form.Field]string{form.Colors: "rojo"})

	want := map[string]string{
		"barCode":             "123",
		"nombre_prenda":       "",
		"tipo_tela":           "",
		"tallas_disponibles":  "",
		"colores_disponibles": "rojo",
		"cantidad_entrante":   "",
		"genero_objetivo":     "",
		"estado_prenda":       "",
	}
	if diff := cmp.Diff(want, m.Snapshot().Map()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	var empty form.Model
	if got := len(empty.Snapshot().Missing()); got != len(form.Fields()) {
		t.Fatalf("expected every field missing, got %d", got)
	}
}

func TestModel_SnapshotIsDecoupledFromEdits(t *testing.T) {
	m := form.New()
	m.Set(form.BarCode, "7501234567890")
	snap := m.Snapshot()

	m.Set(form.BarCode, "changed")
	m.Reset()

	if got := snap.Get(form.BarCode); got != "7501234567890" {
		t.Fatalf("snapshot changed after edit: %q", got)
	}
	mapped := snap.Map()
	mapped[string(form.BarCode)] = "mutated"
	if got := snap.Get(form.BarCode); got != "7501234567890" {
		t.Fatalf("snapshot changed through Map copy: %q", got)
	}
}

func TestSnapshot_MarshalJSONEmitsAllKeys(t *testing.T) {
	m := form.New()
	m.Apply(map[form.Field]string{
		form.BarCode:     "123",
		form.GarmentName: "Camisa",
	})

	data, err := json.Marshal(m.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := map[string]string{
		"barCode":             "123",
		"nombre_prenda":       "Camisa",
		"tipo_tela":           "",
		"tallas_disponibles":  "",
		"colores_disponibles": "",
		"cantidad_entrante":   "",
		"genero_objetivo":     "",
		"estado_prenda":       "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshot_Missing(t *testing.T) {
	snap := form.SnapshotOf(map[form.Field]string{
		form.BarCode:          "1",
		form.GarmentName:      "Camisa",
		form.FabricType:       "Lino",
		form.Sizes:            "s, m",
		form.Colors:           "  ",
		form.IncomingQuantity: "10",
		form.TargetGender:     "Unisex",
	})

	want := []form.Field{form.Colors, form.Condition}
	if diff := cmp.Diff(want, snap.Missing()); diff != "" {
		t.Fatalf("missing fields mismatch (-want +got):\n%s", diff)
	}
}

func TestParseField(t *testing.T) {
	f, err := form.ParseField(" tipo_tela ")
	if err != nil || f != form.FabricType {
		t.Fatalf("expected tipo_tela, got %q, %v", f, err)
	}
	if _, err := form.ParseField("precio"); !errors.Is(err, form.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestFields_OrderAndLabels(t *testing.T) {
	fields := form.Fields()
	if len(fields) != 8 || fields[0] != form.BarCode {
		t.Fatalf("unexpected field catalog: %v", fields)
	}
	if got := form.BarCode.Label(); got != "Código" {
		t.Fatalf("unexpected label %q", got)
	}
	fields[0] = "mutated"
	if form.Fields()[0] != form.BarCode {
		t.Fatalf("Fields exposed internal slice")
	}
}
