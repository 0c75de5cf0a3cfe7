// Package request turns a validated job configuration into the descriptor
// of a bulk download or a report request. Building never touches the
// network, so configuration mistakes surface before anything is submitted.
package request

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"bingads-extractor/shared/observability"
	"bingads-extractor/workers/extractor/internal/domain"
	"bingads-extractor/workers/extractor/internal/metadata"
	"bingads-extractor/workers/extractor/internal/preset"
	"bingads-extractor/workers/extractor/internal/settings"
)

const (
	// MaxIncrementalAge is the oldest last-sync time the bulk service
	// accepts as an incremental cutoff.
	MaxIncrementalAge = 30 * 24 * time.Hour

	defaultBulkTable     = "Entities"
	defaultFormatVersion = "2.0"
)

var formatVersions = map[string]bool{"1.0": true, "2.0": true}

// Builder resolves configurations against the preset catalog and the
// service metadata.
type Builder struct {
	catalog  *preset.Catalog
	metadata *metadata.Provider
	logger   observability.Logger
	now      func() time.Time
}

// Option customizes a Builder.
type Option func(*Builder)

// WithClock replaces time.Now, for relative dates and the incremental window.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

func NewBuilder(catalog *preset.Catalog, meta *metadata.Provider, logger observability.Logger, opts ...Option) *Builder {
	b := &Builder{
		catalog:  catalog,
		metadata: meta,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns the descriptor for p. lastSync is the time of the previous
// successful run, or nil. Every error is a configuration error.
func (b *Builder) Build(ctx context.Context, p settings.Parameters, lastSync *time.Time) (domain.Descriptor, error) {
	switch p.ObjectType {
	case settings.ObjectEntity:
		if p.Bulk == nil {
			return domain.Descriptor{}, domain.ConfigError("bulk_settings", "required for object type %q", p.ObjectType)
		}
		return b.buildBulk(ctx, *p.Bulk, p.Destination, lastSync)
	case settings.ObjectReportPrebuilt, settings.ObjectReportCustom:
		if p.Report() == nil {
			return domain.Descriptor{}, domain.ConfigError(p.BlockName(), "required for object type %q", p.ObjectType)
		}
		return b.buildReport(ctx, p, lastSync)
	default:
		return domain.Descriptor{}, domain.ConfigError("object_type", "unsupported object type %q", p.ObjectType)
	}
}

func (b *Builder) buildBulk(ctx context.Context, s settings.BulkSettings, dest settings.Destination, lastSync *time.Time) (domain.Descriptor, error) {
	scopes := []string(s.DataScope)
	if len(scopes) == 0 {
		scopes = []string{domain.EntityData}
	}
	if _, err := preset.Unique(scopes); err != nil {
		return domain.Descriptor{}, domain.ConfigError("bulk_settings.data_scope", "%v", err)
	}
	for _, scope := range scopes {
		if !slices.Contains(domain.DataScopes(), scope) {
			return domain.Descriptor{}, domain.ConfigError("bulk_settings.data_scope",
				"unknown data scope %q; use %s", scope, strings.Join(domain.DataScopes(), ", "))
		}
	}

	entities := []string(s.DownloadEntities)
	if len(entities) == 0 {
		return domain.Descriptor{}, domain.ConfigError("bulk_settings.download_entities", "at least one entity is required")
	}
	if b.metadata != nil {
		for _, e := range entities {
			if !b.metadata.IsBulkEntity(e) {
				b.logger.Warn(ctx, "Download entity is not in the known entity list", observability.Fields{
					"entity": e,
				})
			}
		}
	}

	cutoff, reason := IncrementalCutoff(s.SinceLastRun, lastSync, scopes, b.now())
	if reason != "" {
		b.logger.Warn(ctx, "Incremental download disabled, downloading all data", observability.Fields{
			"reason": reason,
		})
	}

	table := dest.TableName
	if table == "" {
		table = defaultBulkTable
	}

	return domain.Descriptor{
		Kind: domain.KindBulk,
		Bulk: &domain.BulkSpec{
			DataScope:        scopes,
			DownloadEntities: entities,
			Since:            cutoff,
		},
		PrimaryKey: []string{"Type", "Id"},
		FileName:   table + ".csv",
		FileFormat: domain.FileFormatCSV,
	}, nil
}

// IncrementalCutoff decides whether a bulk download can be limited to
// changes since lastSync. When it cannot although sinceLastRun asked for
// it, the second result says why.
func IncrementalCutoff(sinceLastRun bool, lastSync *time.Time, scopes []string, now time.Time) (*time.Time, string) {
	if !sinceLastRun {
		return nil, ""
	}
	if lastSync == nil {
		return nil, "no previous successful run is recorded"
	}
	for _, scope := range scopes {
		if domain.IncrementalIncompatible(scope) {
			return nil, fmt.Sprintf("data scope %s does not support incremental downloads", scope)
		}
	}
	if now.Sub(*lastSync) >= MaxIncrementalAge {
		return nil, fmt.Sprintf("last sync %s is more than 30 days old", lastSync.UTC().Format(time.RFC3339))
	}
	since := lastSync.UTC()
	return &since, ""
}

func (b *Builder) buildReport(ctx context.Context, p settings.Parameters, lastSync *time.Time) (domain.Descriptor, error) {
	r := p.Report()
	block := p.BlockName()

	agg, ok := domain.ParseAggregation(r.Aggregation)
	if !ok {
		return domain.Descriptor{}, domain.ConfigError(block+".aggregation", "must be %q or %q, got %q",
			domain.Daily, domain.Hourly, r.Aggregation)
	}

	var reportType, presetName string
	var columns, primaryKey []string

	if p.ObjectType == settings.ObjectReportPrebuilt {
		entry, err := b.catalog.Resolve(r.PresetName, agg)
		if err != nil {
			return domain.Descriptor{}, err
		}
		presetName = entry.Name
		reportType = entry.ReportType
		columns = entry.Columns
		primaryKey = entry.PrimaryKey
		if len(r.Columns) > 0 {
			columns = []string(r.Columns)
		}
		if len(r.PrimaryKey) > 0 {
			primaryKey = []string(r.PrimaryKey)
		}
	} else {
		reportType = strings.TrimSpace(r.ReportType)
		if reportType == "" {
			return domain.Descriptor{}, domain.ConfigError(block+".report_type", "report type is required")
		}
		columns = []string(r.Columns)
		primaryKey = []string(r.PrimaryKey)
	}

	if len(columns) == 0 {
		return domain.Descriptor{}, domain.ConfigError(block+".columns", "at least one column is required")
	}
	if _, err := preset.Unique(columns); err != nil {
		return domain.Descriptor{}, domain.ConfigError(block+".columns", "%v", err)
	}
	if missing := preset.Missing(primaryKey, columns); len(missing) > 0 {
		return domain.Descriptor{}, domain.ConfigError(block+".primary_key",
			"all primary key columns must be in columns; missing: %s", strings.Join(missing, ", "))
	}
	b.checkColumns(ctx, reportType, columns)

	spec, err := ResolveTime(r.TimeRange, r.TimeZone, lastSync, b.now())
	if err != nil {
		return domain.Descriptor{}, err
	}

	formatVersion := r.FormatVersion
	if formatVersion == "" {
		formatVersion = defaultFormatVersion
	}
	if !formatVersions[formatVersion] {
		return domain.Descriptor{}, domain.ConfigError(block+".format_version", "must be 1.0 or 2.0, got %q", formatVersion)
	}

	completeOnly := true
	if r.ReturnOnlyCompleteData != nil {
		completeOnly = *r.ReturnOnlyCompleteData
	}

	return domain.Descriptor{
		Kind: domain.KindReport,
		Report: &domain.ReportSpec{
			ReportType:             reportType,
			PresetName:             presetName,
			Aggregation:            agg,
			Columns:                columns,
			Time:                   spec,
			ReturnOnlyCompleteData: completeOnly,
			FormatVersion:          formatVersion,
		},
		PrimaryKey: primaryKey,
		FileName:   ReportFileName(p.Destination.TableName, presetName, agg, reportType),
		FileFormat: domain.FileFormatCSV,
	}, nil
}

// checkColumns warns about names the service metadata does not list. The
// remote service has the final word, so this never fails.
func (b *Builder) checkColumns(ctx context.Context, reportType string, columns []string) {
	if b.metadata == nil {
		return
	}
	if _, ok := b.metadata.ReportColumns(reportType); !ok {
		b.logger.Warn(ctx, "Report type is not in the known report list", observability.Fields{
			"report_type": reportType,
		})
		return
	}
	if unknown := b.metadata.UnknownColumns(reportType, columns); len(unknown) > 0 {
		b.logger.Warn(ctx, "Report columns are not in the known column list", observability.Fields{
			"report_type": reportType,
			"columns":     unknown,
		})
	}
}

// ReportFileName is {table}.csv when a table is configured, otherwise a
// name derived from the preset or the report type.
func ReportFileName(table, presetName string, agg domain.Aggregation, reportType string) string {
	switch {
	case table != "":
		return table + ".csv"
	case presetName != "":
		return fmt.Sprintf("%s_%s_Report.csv", presetName, agg)
	default:
		return reportType + "_Report.csv"
	}
}
