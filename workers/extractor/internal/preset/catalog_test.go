package preset

import (
	"testing"

	"bingads-extractor/workers/extractor/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnique(t *testing.T) {
	t.Run("preserves first occurrence order", func(t *testing.T) {
		out, err := Unique([]string{"b", "a"}, []string{"c"}, nil, []string{"d"})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a", "c", "d"}, out)
	})

	t.Run("idempotent on unique input", func(t *testing.T) {
		first, err := Unique([]string{"x", "y"}, []string{"z"})
		require.NoError(t, err)

		second, err := Unique(first)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("rejects overlap across groups", func(t *testing.T) {
		_, err := Unique([]string{"Impressions", "Clicks"}, []string{"Impressions"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Impressions")
	})

	t.Run("rejects duplicates within a group", func(t *testing.T) {
		_, err := Unique([]string{"a", "a"})
		assert.Error(t, err)
	})
}

func TestMerge(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Merge([]string{"a", "b"}, []string{"b", "c", "a"}))
	assert.Equal(t, []string{"a", "b"}, Merge(Merge([]string{"a", "b"})))
	assert.Empty(t, Merge())
}

func TestInsertAt(t *testing.T) {
	base := []string{"a", "b", "c"}

	assert.Equal(t, []string{"x", "a", "b", "c"}, insertAt(base, 0, "x"))
	assert.Equal(t, []string{"a", "x", "b", "c"}, insertAt(base, 1, "x"))
	assert.Equal(t, []string{"a", "b", "c", "x"}, insertAt(base, 10, "x"))
	assert.Equal(t, []string{"a", "b", "c"}, base)
}

func TestNewCatalog_RejectsPrimaryKeyOutsideColumns(t *testing.T) {
	_, err := NewCatalog([]Definition{{
		Name:       "Broken",
		ReportType: "AccountPerformance",
		ByAggregation: map[domain.Aggregation]ColumnSet{
			domain.Daily: {Columns: []string{"AccountId"}, PrimaryKey: []string{"AccountId", "TimePeriod"}},
		},
	}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TimePeriod")
}

func TestNewCatalog_RejectsDuplicateNames(t *testing.T) {
	def := Definition{
		Name:          "A",
		ReportType:    "AccountPerformance",
		ByAggregation: both(ColumnSet{Columns: []string{"x"}}),
	}
	_, err := NewCatalog([]Definition{def, def})
	assert.Error(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	t.Run("every entry keeps its primary key inside its columns", func(t *testing.T) {
		all := catalog.All()
		assert.Len(t, all, 22)
		for _, p := range all {
			assert.Empty(t, Missing(p.PrimaryKey, p.Columns), "%s/%s", p.Name, p.Aggregation)
			_, err := Unique(p.Columns)
			assert.NoError(t, err, "%s/%s has duplicate columns", p.Name, p.Aggregation)
		}
	})

	sizes := []struct {
		name       string
		agg        domain.Aggregation
		reportType string
		columns    int
		primaryKey int
	}{
		{"AccountPerformance", domain.Daily, "AccountPerformance", 43, 12},
		{"AccountImpressionPerformance", domain.Daily, "AccountPerformance", 47, 7},
		{"AccountImpressionPerformance", domain.Hourly, "AccountPerformance", 38, 7},
		{"AdGroupPerformance", domain.Daily, "AdGroupPerformance", 52, 15},
		{"AdGroupPerformance", domain.Hourly, "AdGroupPerformance", 48, 15},
		{"AdGroupImpressionPerformance", domain.Daily, "AdGroupPerformance", 56, 10},
		{"AdGroupImpressionPerformance", domain.Hourly, "AdGroupPerformance", 43, 10},
		{"CampaignPerformance", domain.Daily, "CampaignPerformance", 60, 13},
		{"CampaignPerformance", domain.Hourly, "CampaignPerformance", 56, 13},
		{"CampaignImpressionPerformance", domain.Daily, "CampaignPerformance", 61, 8},
		{"CampaignImpressionPerformance", domain.Hourly, "CampaignPerformance", 48, 8},
		{"ProductDimensionPerformance", domain.Hourly, "ProductDimensionPerformance", 56, 16},
		{"KeywordPerformance", domain.Daily, "KeywordPerformance", 59, 15},
		{"KeywordPerformance", domain.Hourly, "KeywordPerformance", 53, 15},
		{"GeographicPerformance", domain.Daily, "GeographicPerformance", 38, 23},
		{"AssetPerformance", domain.Daily, "AssetPerformance", 23, 11},
		{"AssetGroupPerformance", domain.Hourly, "AssetGroupPerformance", 19, 11},
	}

	for _, tt := range sizes {
		t.Run(tt.name+"/"+string(tt.agg), func(t *testing.T) {
			p, err := catalog.Resolve(tt.name, tt.agg)
			require.NoError(t, err)
			assert.Equal(t, tt.reportType, p.ReportType)
			assert.Len(t, p.Columns, tt.columns)
			assert.Len(t, p.PrimaryKey, tt.primaryKey)
		})
	}

	t.Run("name columns follow their ids", func(t *testing.T) {
		p, err := catalog.Resolve("AdGroupPerformance", domain.Daily)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"TimePeriod", "CurrencyCode", "AdDistribution", "DeviceType", "Network",
			"AccountId", "AccountName", "DeliveredMatchType", "CampaignId", "CampaignName",
			"AdGroupId", "AdGroupName", "Language",
		}, p.Columns[:13])

		geo, err := catalog.Resolve("GeographicPerformance", domain.Daily)
		require.NoError(t, err)
		assert.Equal(t, "CampaignName", geo.Columns[8])
		assert.Equal(t, "AccountName", geo.Columns[9])
	})
}

func TestCatalog_Resolve(t *testing.T) {
	catalog := MustDefaultCatalog()

	t.Run("returns a copy", func(t *testing.T) {
		p, err := catalog.Resolve("AccountPerformance", domain.Daily)
		require.NoError(t, err)
		p.Columns[0] = "Mutated"

		again, err := catalog.Resolve("AccountPerformance", domain.Daily)
		require.NoError(t, err)
		assert.Equal(t, "TimePeriod", again.Columns[0])
	})

	t.Run("unknown preset is a configuration error", func(t *testing.T) {
		_, err := catalog.Resolve("NoSuchPreset", domain.Daily)
		require.Error(t, err)
		assert.Equal(t, domain.Configuration, domain.KindOf(err))
		assert.Contains(t, err.Error(), "NoSuchPreset")
		assert.Contains(t, err.Error(), "Daily")
	})

	t.Run("unknown aggregation is a configuration error", func(t *testing.T) {
		_, err := catalog.Resolve("AccountPerformance", domain.Aggregation("Weekly"))
		require.Error(t, err)
		assert.Equal(t, domain.Configuration, domain.KindOf(err))
		assert.Contains(t, err.Error(), "Weekly")
	})
}

func TestCatalog_Names(t *testing.T) {
	names := MustDefaultCatalog().Names()

	assert.Len(t, names, 11)
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "KeywordPerformance")
}
