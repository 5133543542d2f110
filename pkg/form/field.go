package form

import (
	"errors"
	"fmt"
	"strings"
)

// Field names a garment form input. The values double as the JSON keys
// expected by the inventory API.
type Field string

const (
	BarCode          Field = "barCode"
	GarmentName      Field = "nombre_prenda"
	FabricType       Field = "tipo_tela"
	Sizes            Field = "tallas_disponibles"
	Colors           Field = "colores_disponibles"
	IncomingQuantity Field = "cantidad_entrante"
	TargetGender     Field = "genero_objetivo"
	Condition        Field = "estado_prenda"
)

// ErrUnknownField is returned by ParseField for names outside the catalog.
var ErrUnknownField = errors.New("form: unknown field")

var fieldOrder = []Field{
	BarCode,
	GarmentName,
	FabricType,
	Sizes,
	Colors,
	IncomingQuantity,
	TargetGender,
	Condition,
}

var fieldLabels = map[Field]string{
	BarCode:          "Código",
	GarmentName:      "Nombre de la prenda",
	FabricType:       "Tipo de tela",
	Sizes:            "Tallas disponibles",
	Colors:           "Colores disponibles",
	IncomingQuantity: "Cantidad entrante",
	TargetGender:     "Género objetivo",
	Condition:        "Estado prenda",
}

// Fields returns every form field in display order.
func Fields() []Field {
	return append([]Field(nil), fieldOrder...)
}

// Known reports whether f belongs to the garment form.
func (f Field) Known() bool {
	_, ok := fieldLabels[f]
	return ok
}

// Label returns the operator-facing label for f.
func (f Field) Label() string {
	if label, ok := fieldLabels[f]; ok {
		return label
	}
	return string(f)
}

// Numeric reports whether the field expects digits only.
func (f Field) Numeric() bool {
	return f == IncomingQuantity
}

// ParseField resolves a raw key into a Field.
func ParseField(raw string) (Field, error) {
	f := Field(strings.TrimSpace(raw))
	if !f.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, raw)
	}
	return f, nil
}
