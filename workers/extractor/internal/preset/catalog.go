// Package preset holds the prebuilt report configurations: for each preset
// name and aggregation, the report type, the columns to request and the
// primary key of the resulting table.
package preset

import (
	"fmt"
	"sort"
	"strings"

	"bingads-extractor/workers/extractor/internal/domain"
)

// Preset is one resolved (name, aggregation) entry.
type Preset struct {
	Name        string             `json:"name"`
	Aggregation domain.Aggregation `json:"aggregation"`
	ReportType  string             `json:"report_type"`
	Columns     []string           `json:"columns"`
	PrimaryKey  []string           `json:"primary_key"`
}

// Definition is a preset with its per-aggregation column sets.
type Definition struct {
	Name          string
	ReportType    string
	ByAggregation map[domain.Aggregation]ColumnSet
}

// ColumnSet pairs the columns of a report with its primary key.
type ColumnSet struct {
	Columns    []string
	PrimaryKey []string
}

// Catalog is an immutable, validated set of presets.
type Catalog struct {
	defs map[string]Definition
}

// NewCatalog validates every definition and returns the catalog. A primary
// key column missing from the columns of its entry is rejected.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if d.Name == "" || d.ReportType == "" {
			return nil, fmt.Errorf("preset definition needs a name and a report type")
		}
		if _, ok := c.defs[d.Name]; ok {
			return nil, fmt.Errorf("preset %q defined twice", d.Name)
		}
		for agg, set := range d.ByAggregation {
			if len(set.Columns) == 0 {
				return nil, fmt.Errorf("preset %q/%s has no columns", d.Name, agg)
			}
			if missing := Missing(set.PrimaryKey, set.Columns); len(missing) > 0 {
				return nil, fmt.Errorf("preset %q/%s: primary key columns missing in columns: %s",
					d.Name, agg, strings.Join(missing, ", "))
			}
		}
		c.defs[d.Name] = d
	}
	return c, nil
}

// DefaultCatalog builds the catalog of built-in presets.
func DefaultCatalog() (*Catalog, error) {
	defs, err := defaultDefinitions()
	if err != nil {
		return nil, err
	}
	return NewCatalog(defs)
}

// MustDefaultCatalog is DefaultCatalog for process start-up; an invalid
// built-in table is a programming error.
func MustDefaultCatalog() *Catalog {
	c, err := DefaultCatalog()
	if err != nil {
		panic(fmt.Sprintf("preset: invalid built-in catalog: %v", err))
	}
	return c
}

// Resolve returns a copy of the entry for name and agg.
func (c *Catalog) Resolve(name string, agg domain.Aggregation) (Preset, error) {
	d, ok := c.defs[name]
	if !ok {
		return Preset{}, c.notAvailable(name, agg)
	}
	set, ok := d.ByAggregation[agg]
	if !ok {
		return Preset{}, c.notAvailable(name, agg)
	}
	return Preset{
		Name:        name,
		Aggregation: agg,
		ReportType:  d.ReportType,
		Columns:     append([]string(nil), set.Columns...),
		PrimaryKey:  append([]string(nil), set.PrimaryKey...),
	}, nil
}

func (c *Catalog) notAvailable(name string, agg domain.Aggregation) error {
	return domain.ConfigError("preset_name",
		"prebuilt report configuration for preset name %q and aggregation %q is not available", name, agg)
}

// Names lists the preset names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.defs))
	for n := range c.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every entry, sorted by name and then aggregation.
func (c *Catalog) All() []Preset {
	var out []Preset
	for _, name := range c.Names() {
		for _, agg := range domain.Aggregations() {
			if p, err := c.Resolve(name, agg); err == nil {
				out = append(out, p)
			}
		}
	}
	return out
}
