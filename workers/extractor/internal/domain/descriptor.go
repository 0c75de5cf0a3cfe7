package domain

import (
	"fmt"
	"time"
)

// Kind discriminates the two remote job kinds.
type Kind string

const (
	KindBulk   Kind = "Bulk"
	KindReport Kind = "Report"
)

// Aggregation is the report granularity.
type Aggregation string

const (
	Daily  Aggregation = "Daily"
	Hourly Aggregation = "Hourly"
)

// Aggregations lists the supported granularities.
func Aggregations() []Aggregation {
	return []Aggregation{Daily, Hourly}
}

// ParseAggregation accepts the canonical spelling only.
func ParseAggregation(s string) (Aggregation, bool) {
	for _, a := range Aggregations() {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// Bulk data scopes.
const (
	EntityData         = "EntityData"
	QualityScoreData   = "QualityScoreData"
	BidSuggestionsData = "BidSuggestionsData"
)

// DataScopes lists every data scope the bulk service accepts.
func DataScopes() []string {
	return []string{EntityData, QualityScoreData, BidSuggestionsData}
}

// IncrementalIncompatible reports whether requesting scope rules out a
// last-sync cutoff.
func IncrementalIncompatible(scope string) bool {
	return scope == QualityScoreData || scope == BidSuggestionsData
}

const (
	// FileFormatCSV is the only result format requested.
	FileFormatCSV = "Csv"
	// CustomTimeRange marks a report period given as explicit bounds.
	CustomTimeRange = "CustomTimeRange"
)

// Descriptor is a fully validated download request. Exactly one of Bulk or
// Report is set, matching Kind.
type Descriptor struct {
	Kind       Kind
	Bulk       *BulkSpec
	Report     *ReportSpec
	PrimaryKey []string
	// FileName is the staging and output file name, including ".csv".
	FileName   string
	FileFormat string
}

// BulkSpec describes a bulk entity export.
type BulkSpec struct {
	DataScope        []string
	DownloadEntities []string
	// Since is the incremental cutoff; nil requests a full export.
	Since *time.Time
}

// ReportSpec describes a performance report.
type ReportSpec struct {
	ReportType             string
	PresetName             string
	Aggregation            Aggregation
	Columns                []string
	Time                   TimeSpec
	ReturnOnlyCompleteData bool
	FormatVersion          string
}

// TimeSpec is either a predefined period or a custom date range.
type TimeSpec struct {
	PredefinedTime string
	From           *time.Time
	To             *time.Time
	TimeZone       string
}

// IsCustom reports whether the time spec uses explicit bounds.
func (t TimeSpec) IsCustom() bool {
	return t.PredefinedTime == ""
}

// Validate checks the variant invariant.
func (d Descriptor) Validate() error {
	switch d.Kind {
	case KindBulk:
		if d.Bulk == nil || d.Report != nil {
			return fmt.Errorf("bulk descriptor must carry only a bulk spec")
		}
	case KindReport:
		if d.Report == nil || d.Bulk != nil {
			return fmt.Errorf("report descriptor must carry only a report spec")
		}
	default:
		return fmt.Errorf("unknown descriptor kind %q", d.Kind)
	}
	if d.FileName == "" {
		return fmt.Errorf("descriptor has no file name")
	}
	return nil
}
