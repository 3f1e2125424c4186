package schema

import (
	"errors"
	"fmt"

	"github.com/spektr-org/pivot/engine"
)

var (
	// ErrInvalidSchema is returned by Validate.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrNoData is returned when discovery has no header or no rows to inspect.
	ErrNoData = errors.New("no data to discover")
)

// ============================================================================
// SCHEMA — Describes the shape of a dataset for the loaders and the pivot
// ============================================================================
// Auto-discovered from CSV / XLSX sample rows or built by consumer apps.
// Loaders use the detected types to convert raw cells; SuggestLayout turns
// the detected roles into a first pivot layout.
// ============================================================================

// Role is the suggested pivot role of a column.
type Role string

const (
	RoleDimension Role = "dimension" // row or column field
	RoleMeasure   Role = "measure"   // data field
	RoleSkipped   Role = "skipped"   // identifiers, free text, empty columns
)

// Config describes the complete shape of a dataset.
type Config struct {
	Name   string      `json:"name"`
	Fields []FieldMeta `json:"fields"` // one per source column, in column order

	// Auto-discovery metadata
	DiscoveredFrom string `json:"discoveredFrom,omitempty"`
	DiscoveredAt   string `json:"discoveredAt,omitempty"`
	SampledRows    int    `json:"sampledRows,omitempty"`
}

// FieldMeta describes one source column.
type FieldMeta struct {
	Name         string           `json:"name"` // raw header, the pivot field name
	DisplayName  string           `json:"displayName"`
	Type         engine.FieldType `json:"type"`
	Role         Role             `json:"role"`
	SampleValues []string         `json:"sampleValues,omitempty"`
	Cardinality  string           `json:"cardinality,omitempty"` // "low", "medium", "high"

	IsTemporal     bool   `json:"isTemporal,omitempty"`
	TemporalFormat string `json:"temporalFormat,omitempty"` // "MMM-yyyy", "yyyy", ...
	TimeLayout     string `json:"timeLayout,omitempty"`     // Go layout for TypeTime columns

	Parent     string `json:"parent,omitempty"` // parent dimension for hierarchies
	SkipReason string `json:"skipReason,omitempty"`

	DefaultAggregate engine.AggregateFunc `json:"defaultAggregate,omitempty"`
}

// Names returns the column names in order.
func (c *Config) Names() []string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.Name
	}
	return names
}

// Types returns the detected column types in order.
func (c *Config) Types() []engine.FieldType {
	types := make([]engine.FieldType, len(c.Fields))
	for i, f := range c.Fields {
		types[i] = f.Type
	}
	return types
}

// Field returns the metadata of the named column, or nil.
func (c *Config) Field(name string) *FieldMeta {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i]
		}
	}
	return nil
}

// Dimensions returns the columns suggested as row or column fields.
func (c *Config) Dimensions() []FieldMeta {
	return c.withRole(RoleDimension)
}

// Measures returns the columns suggested as data fields.
func (c *Config) Measures() []FieldMeta {
	return c.withRole(RoleMeasure)
}

// Skipped returns the columns excluded from suggestions.
func (c *Config) Skipped() []FieldMeta {
	return c.withRole(RoleSkipped)
}

func (c *Config) withRole(role Role) []FieldMeta {
	var out []FieldMeta
	for _, f := range c.Fields {
		if f.Role == role {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks the config is usable by the loaders.
func (c *Config) Validate() error {
	if len(c.Fields) == 0 {
		return fmt.Errorf("%w: no fields", ErrInvalidSchema)
	}
	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: empty field name", ErrInvalidSchema)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}
