package form

import "strings"

// Choice is one selectable value of a dropdown field.
type Choice struct {
	Label string `yaml:"label" json:"label"`
	Value string `yaml:"value" json:"value"`
}

// Catalog holds the options offered for the multi-select fields. Selected
// values are stored in the form joined by ValueSeparator.
type Catalog struct {
	Sizes  []Choice `yaml:"sizes" json:"sizes"`
	Colors []Choice `yaml:"colors" json:"colors"`
}

// ValueSeparator joins multi-select values into a single field value.
const ValueSeparator = ", "

// DefaultCatalog returns the stock size and colour options.
func DefaultCatalog() Catalog {
	return Catalog{
		Sizes: []Choice{
			{Label: "S", Value: "s"},
			{Label: "M", Value: "m"},
			{Label: "L", Value: "l"},
		},
		Colors: []Choice{
			{Label: "Rojo", Value: "rojo"},
			{Label: "Verde", Value: "verde"},
			{Label: "Azul", Value: "azul"},
		},
	}
}

// Choices returns the options for f, or nil for free-text fields.
func (c Catalog) Choices(f Field) []Choice {
	switch f {
	case Sizes:
		return append([]Choice(nil), c.Sizes...)
	case Colors:
		return append([]Choice(nil), c.Colors...)
	default:
		return nil
	}
}

// Join encodes selected values as a field value.
func Join(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, ValueSeparator)
}

// Split decodes a multi-select field value.
func Split(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
