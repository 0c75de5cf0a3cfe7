// Package metadata exposes the column and entity enumerations of the remote
// services. The data is embedded and parsed once; a Provider is read-only.
package metadata

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed metadata.yaml
var embedded []byte

// Provider answers metadata lookups.
type Provider struct {
	reportColumns map[string][]string
	columnIndex   map[string]map[string]struct{}
	bulkEntities  []string
	entityIndex   map[string]struct{}
}

type document struct {
	ReportColumns map[string][]string `yaml:"report_columns"`
	BulkEntities  []string            `yaml:"bulk_entities"`
}

// New loads the embedded enumerations.
func New() (*Provider, error) {
	return Parse(embedded)
}

// Parse builds a Provider from a YAML document.
func Parse(raw []byte) (*Provider, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	if len(doc.ReportColumns) == 0 {
		return nil, fmt.Errorf("metadata has no report columns")
	}

	p := &Provider{
		reportColumns: doc.ReportColumns,
		columnIndex:   make(map[string]map[string]struct{}, len(doc.ReportColumns)),
		bulkEntities:  doc.BulkEntities,
		entityIndex:   toSet(doc.BulkEntities),
	}
	for reportType, cols := range doc.ReportColumns {
		p.columnIndex[reportType] = toSet(cols)
	}
	return p, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// ReportTypes lists the known report types, sorted.
func (p *Provider) ReportTypes() []string {
	types := make([]string, 0, len(p.reportColumns))
	for t := range p.reportColumns {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// ReportColumns returns the columns available for reportType.
func (p *Provider) ReportColumns(reportType string) ([]string, bool) {
	cols, ok := p.reportColumns[reportType]
	if !ok {
		return nil, false
	}
	return append([]string(nil), cols...), true
}

// UnknownColumns returns the columns not available for reportType. The
// result is nil when the report type itself is unknown.
func (p *Provider) UnknownColumns(reportType string, columns []string) []string {
	index, ok := p.columnIndex[reportType]
	if !ok {
		return nil
	}
	var unknown []string
	for _, c := range columns {
		if _, ok := index[c]; !ok {
			unknown = append(unknown, c)
		}
	}
	return unknown
}

// BulkEntities lists the entity names a bulk download accepts.
func (p *Provider) BulkEntities() []string {
	return append([]string(nil), p.bulkEntities...)
}

func (p *Provider) IsBulkEntity(name string) bool {
	_, ok := p.entityIndex[name]
	return ok
}
