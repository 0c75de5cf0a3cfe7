package request

import (
	"context"
	"testing"
	"time"

	"bingads-extractor/shared/observability"
	obmocks "bingads-extractor/shared/observability/mocks"
	"bingads-extractor/workers/extractor/internal/domain"
	"bingads-extractor/workers/extractor/internal/metadata"
	"bingads-extractor/workers/extractor/internal/preset"
	"bingads-extractor/workers/extractor/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := fixedNow.Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}

func newTestBuilder(t *testing.T, logger *obmocks.MockLogger) *Builder {
	t.Helper()
	meta, err := metadata.New()
	require.NoError(t, err)
	if logger == nil {
		logger = obmocks.NewNopLogger()
	}
	return NewBuilder(preset.MustDefaultCatalog(), meta, logger, WithClock(func() time.Time { return fixedNow }))
}

func requireConfigField(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.Configuration, derr.Kind)
	assert.Equal(t, field, derr.Field)
}

func TestIncrementalCutoff(t *testing.T) {
	tests := []struct {
		name       string
		since      bool
		lastSync   *time.Time
		scopes     []string
		wantCutoff *time.Time
		wantReason bool
	}{
		{"not requested", false, daysAgo(5), []string{domain.EntityData}, nil, false},
		{"no previous run", true, nil, []string{domain.EntityData}, nil, true},
		{"stale last sync", true, daysAgo(31), []string{domain.EntityData}, nil, true},
		{"exactly 30 days", true, daysAgo(30), []string{domain.EntityData}, nil, true},
		{"quality score data", true, daysAgo(5), []string{domain.QualityScoreData}, nil, true},
		{"bid suggestions mixed in", true, daysAgo(5), []string{domain.EntityData, domain.BidSuggestionsData}, nil, true},
		{"eligible", true, daysAgo(5), []string{domain.EntityData}, daysAgo(5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cutoff, reason := IncrementalCutoff(tt.since, tt.lastSync, tt.scopes, fixedNow)
			assert.Equal(t, tt.wantCutoff, cutoff)
			assert.Equal(t, tt.wantReason, reason != "")
		})
	}
}

func TestResolveTime(t *testing.T) {
	date := func(y int, m time.Month, d int) *time.Time {
		v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &v
	}

	t.Run("predefined period passes through", func(t *testing.T) {
		spec, err := ResolveTime(settings.TimeRange{Period: "Yesterday"}, "Amsterdam", nil, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, domain.TimeSpec{PredefinedTime: "Yesterday", TimeZone: "Amsterdam"}, spec)
		assert.False(t, spec.IsCustom())
	})

	t.Run("absolute dates", func(t *testing.T) {
		spec, err := ResolveTime(settings.TimeRange{
			Period: domain.CustomTimeRange, DateFrom: "2024-01-01", DateTo: "2024-01-31",
		}, "", nil, fixedNow)
		require.NoError(t, err)
		assert.True(t, spec.IsCustom())
		assert.Equal(t, date(2024, time.January, 1), spec.From)
		assert.Equal(t, date(2024, time.January, 31), spec.To)
	})

	t.Run("relative dates", func(t *testing.T) {
		spec, err := ResolveTime(settings.TimeRange{
			Period: domain.CustomTimeRange, DateFrom: "7 days ago", DateTo: "yesterday",
		}, "", nil, fixedNow)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.March, 8), spec.From)
		assert.Equal(t, date(2024, time.March, 14), spec.To)
	})

	t.Run("last run uses the previous sync", func(t *testing.T) {
		spec, err := ResolveTime(settings.TimeRange{
			Period: domain.CustomTimeRange, DateFrom: "Last Run", DateTo: "2024-03-15",
		}, "", daysAgo(3), fixedNow)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.March, 12), spec.From)
	})

	t.Run("last run without previous sync", func(t *testing.T) {
		_, err := ResolveTime(settings.TimeRange{
			Period: domain.CustomTimeRange, DateFrom: "last run", DateTo: "today",
		}, "", nil, fixedNow)
		requireConfigField(t, err, "date_from")
	})

	errorCases := []struct {
		name  string
		tr    settings.TimeRange
		field string
	}{
		{"missing period", settings.TimeRange{}, "time_range.period"},
		{"unknown period", settings.TimeRange{Period: "LastDecade"}, "time_range.period"},
		{"unparseable from", settings.TimeRange{Period: domain.CustomTimeRange, DateFrom: "not a date at all", DateTo: "2024-01-01"}, "date_from"},
		{"unparseable to", settings.TimeRange{Period: domain.CustomTimeRange, DateFrom: "2024-01-01", DateTo: "not a date at all"}, "date_to"},
		{"missing to", settings.TimeRange{Period: domain.CustomTimeRange, DateFrom: "2024-01-01"}, "date_to"},
		{"day out of range", settings.TimeRange{Period: domain.CustomTimeRange, DateFrom: "2024-02-30", DateTo: "2024-03-01"}, "date_from"},
		{"month out of range", settings.TimeRange{Period: domain.CustomTimeRange, DateFrom: "2024-01-01", DateTo: "2024-13-01"}, "date_to"},
		{"bare number", settings.TimeRange{Period: domain.CustomTimeRange, DateFrom: "12", DateTo: "2024-03-01"}, "date_from"},
		{"from after to", settings.TimeRange{Period: domain.CustomTimeRange, DateFrom: "2024-02-01", DateTo: "2024-01-01"}, "date_from"},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveTime(tt.tr, "", nil, fixedNow)
			requireConfigField(t, err, tt.field)
		})
	}
}

func prebuiltParams(presetName string) settings.Parameters {
	return settings.Parameters{
		ObjectType: settings.ObjectReportPrebuilt,
		ReportPrebuilt: &settings.ReportSettings{
			PresetName:  presetName,
			Aggregation: "Daily",
			TimeRange:   settings.TimeRange{Period: "Yesterday"},
			TimeZone:    "Amsterdam",
		},
	}
}

func TestBuilder_BuildPrebuiltReport(t *testing.T) {
	b := newTestBuilder(t, nil)

	t.Run("resolves the preset exactly", func(t *testing.T) {
		desc, err := b.Build(context.Background(), prebuiltParams("AccountPerformance"), nil)
		require.NoError(t, err)
		require.NoError(t, desc.Validate())

		expected, err := preset.MustDefaultCatalog().Resolve("AccountPerformance", domain.Daily)
		require.NoError(t, err)

		assert.Equal(t, domain.KindReport, desc.Kind)
		assert.Nil(t, desc.Bulk)
		assert.Equal(t, expected.Columns, desc.Report.Columns)
		assert.Equal(t, expected.PrimaryKey, desc.PrimaryKey)
		assert.Equal(t, "AccountPerformance", desc.Report.ReportType)
		assert.Equal(t, "AccountPerformance_Daily_Report.csv", desc.FileName)
		assert.Equal(t, domain.FileFormatCSV, desc.FileFormat)
		assert.True(t, desc.Report.ReturnOnlyCompleteData)
		assert.Equal(t, "2.0", desc.Report.FormatVersion)
		assert.Equal(t, "Amsterdam", desc.Report.Time.TimeZone)
	})

	t.Run("explicit columns and primary key override the preset", func(t *testing.T) {
		p := prebuiltParams("AccountPerformance")
		p.ReportPrebuilt.Columns = settings.StringList{"AccountId", "TimePeriod", "Clicks"}
		p.ReportPrebuilt.PrimaryKey = settings.StringList{"AccountId", "TimePeriod"}
		p.Destination.TableName = "accounts"

		desc, err := b.Build(context.Background(), p, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"AccountId", "TimePeriod", "Clicks"}, desc.Report.Columns)
		assert.Equal(t, []string{"AccountId", "TimePeriod"}, desc.PrimaryKey)
		assert.Equal(t, "accounts.csv", desc.FileName)
	})

	t.Run("primary key outside columns lists the offenders", func(t *testing.T) {
		p := prebuiltParams("AccountPerformance")
		p.ReportPrebuilt.Columns = settings.StringList{"AccountId", "Clicks"}
		p.ReportPrebuilt.PrimaryKey = settings.StringList{"AccountId", "TimePeriod", "Network"}

		_, err := b.Build(context.Background(), p, nil)
		requireConfigField(t, err, "report_settings_prebuilt.primary_key")
		assert.Contains(t, err.Error(), "TimePeriod, Network")
	})

	t.Run("unknown preset", func(t *testing.T) {
		_, err := b.Build(context.Background(), prebuiltParams("Nope"), nil)
		requireConfigField(t, err, "preset_name")
	})

	t.Run("bad format version", func(t *testing.T) {
		p := prebuiltParams("AccountPerformance")
		p.ReportPrebuilt.FormatVersion = "3.0"
		_, err := b.Build(context.Background(), p, nil)
		requireConfigField(t, err, "report_settings_prebuilt.format_version")
	})
}

func TestBuilder_BuildCustomReport(t *testing.T) {
	logger := &obmocks.MockLogger{}
	logger.On("Warn", mock.Anything, "Report columns are not in the known column list", mock.MatchedBy(func(f observability.Fields) bool {
		cols, ok := f["columns"].([]string)
		return ok && len(cols) == 1 && cols[0] == "MadeUpColumn"
	})).Return().Once()

	b := newTestBuilder(t, logger)
	completeOnly := false
	p := settings.Parameters{
		ObjectType: settings.ObjectReportCustom,
		ReportCustom: &settings.ReportSettings{
			ReportType:             "CampaignPerformance",
			Columns:                settings.StringList{"CampaignId", "TimePeriod", "Clicks", "MadeUpColumn"},
			PrimaryKey:             settings.StringList{"CampaignId", "TimePeriod"},
			Aggregation:            "Hourly",
			TimeRange:              settings.TimeRange{Period: domain.CustomTimeRange, DateFrom: "2024-03-01", DateTo: "2024-03-10"},
			TimeZone:               "GreenwichMeanTimeDublinEdinburghLisbonLondon",
			ReturnOnlyCompleteData: &completeOnly,
			FormatVersion:          "1.0",
		},
	}

	desc, err := b.Build(context.Background(), p, nil)
	require.NoError(t, err)

	assert.Equal(t, "CampaignPerformance_Report.csv", desc.FileName)
	assert.Equal(t, domain.Hourly, desc.Report.Aggregation)
	assert.Empty(t, desc.Report.PresetName)
	assert.False(t, desc.Report.ReturnOnlyCompleteData)
	assert.Equal(t, "1.0", desc.Report.FormatVersion)
	assert.True(t, desc.Report.Time.IsCustom())
	logger.AssertExpectations(t)

	t.Run("duplicate columns", func(t *testing.T) {
		p.ReportCustom.Columns = settings.StringList{"Clicks", "Clicks"}
		p.ReportCustom.PrimaryKey = nil
		_, err := newTestBuilder(t, nil).Build(context.Background(), p, nil)
		requireConfigField(t, err, "report_settings_custom.columns")
	})
}

func TestBuilder_BuildBulk(t *testing.T) {
	t.Run("eligible incremental download", func(t *testing.T) {
		b := newTestBuilder(t, nil)
		p := settings.Parameters{
			ObjectType: settings.ObjectEntity,
			Bulk: &settings.BulkSettings{
				DataScope:        settings.StringList{"EntityData"},
				DownloadEntities: settings.StringList{"Campaigns", "AdGroups"},
				SinceLastRun:     true,
			},
		}

		desc, err := b.Build(context.Background(), p, daysAgo(5))
		require.NoError(t, err)
		require.NoError(t, desc.Validate())

		assert.Equal(t, domain.KindBulk, desc.Kind)
		assert.Nil(t, desc.Report)
		assert.Equal(t, []string{"Type", "Id"}, desc.PrimaryKey)
		assert.Equal(t, "Entities.csv", desc.FileName)
		assert.Equal(t, daysAgo(5), desc.Bulk.Since)
		assert.Equal(t, []string{"Campaigns", "AdGroups"}, desc.Bulk.DownloadEntities)
	})

	t.Run("ineligible incremental download warns", func(t *testing.T) {
		logger := &obmocks.MockLogger{}
		logger.On("Warn", mock.Anything, "Incremental download disabled, downloading all data", mock.Anything).Return().Once()

		p := settings.Parameters{
			ObjectType:  settings.ObjectEntity,
			Destination: settings.Destination{TableName: "quality"},
			Bulk: &settings.BulkSettings{
				DataScope:        settings.StringList{"EntityData", "QualityScoreData"},
				DownloadEntities: settings.StringList{"Keywords"},
				SinceLastRun:     true,
			},
		}

		desc, err := newTestBuilder(t, logger).Build(context.Background(), p, daysAgo(5))
		require.NoError(t, err)
		assert.Nil(t, desc.Bulk.Since)
		assert.Equal(t, "quality.csv", desc.FileName)
		logger.AssertExpectations(t)
	})

	t.Run("unknown entity only warns", func(t *testing.T) {
		logger := &obmocks.MockLogger{}
		logger.On("Warn", mock.Anything, "Download entity is not in the known entity list", mock.Anything).Return().Once()

		p := settings.Parameters{
			ObjectType: settings.ObjectEntity,
			Bulk:       &settings.BulkSettings{DownloadEntities: settings.StringList{"Spaceships"}},
		}

		desc, err := newTestBuilder(t, logger).Build(context.Background(), p, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{domain.EntityData}, desc.Bulk.DataScope)
		logger.AssertExpectations(t)
	})

	errorCases := []struct {
		name  string
		bulk  *settings.BulkSettings
		field string
	}{
		{"missing block", nil, "bulk_settings"},
		{"unknown scope", &settings.BulkSettings{DataScope: settings.StringList{"Everything"}, DownloadEntities: settings.StringList{"Ads"}}, "bulk_settings.data_scope"},
		{"repeated scope", &settings.BulkSettings{DataScope: settings.StringList{"EntityData", "EntityData"}, DownloadEntities: settings.StringList{"Ads"}}, "bulk_settings.data_scope"},
		{"no entities", &settings.BulkSettings{DataScope: settings.StringList{"EntityData"}}, "bulk_settings.download_entities"},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			p := settings.Parameters{ObjectType: settings.ObjectEntity, Bulk: tt.bulk}
			_, err := newTestBuilder(t, nil).Build(context.Background(), p, nil)
			requireConfigField(t, err, tt.field)
		})
	}
}

func TestReportFileName(t *testing.T) {
	assert.Equal(t, "t.csv", ReportFileName("t", "AccountPerformance", domain.Daily, "AccountPerformance"))
	assert.Equal(t, "KeywordPerformance_Hourly_Report.csv", ReportFileName("", "KeywordPerformance", domain.Hourly, "KeywordPerformance"))
	assert.Equal(t, "AdPerformance_Report.csv", ReportFileName("", "", domain.Daily, "AdPerformance"))
}
