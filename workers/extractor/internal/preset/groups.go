package preset

import "fmt"

// Named column groups the presets are composed from.
var (
	commonPrimaryKey = []string{
		"TimePeriod",
		"CurrencyCode",
		"AdDistribution",
		"DeviceType",
		"Network",
	}

	accountNamePrimaryKey = []string{"AccountName"}
	topVsOtherPrimaryKey  = []string{"TopVsOther"}
	adPrimaryKey          = []string{"AdId"}
	adGroupPrimaryKey     = []string{"AdGroupId"}
	campaignPrimaryKey    = []string{"CampaignId"}
	languagePrimaryKey    = []string{"Language"}

	geographicPrimaryKey = []string{
		"LocationType",
		"Country",
		"State",
		"County",
		"MetroArea",
		"City",
		"Neighborhood",
		"MostSpecificLocation",
		"LocationId",
		"ProximityTargetLocation",
	}

	campaignColumns = []string{
		"CampaignStatus",
		"CustomParameters",
	}

	budgetColumns = []string{
		"BudgetName",
		"BudgetStatus",
		"BudgetAssociationStatus",
	}

	averageCostMetrics = []string{
		"AverageCpc",
		"AverageCpm",
	}

	conversionMetrics = []string{
		"ConversionRate",
		"ConversionsQualified",
	}

	lowQualityMetrics = []string{
		"LowQualityClicks",
		"LowQualityClicksPercent",
		"LowQualityConversionRate",
		"LowQualityConversions",
		"LowQualityConversionsQualified",
		"LowQualityGeneralClicks",
		"LowQualityImpressions",
		"LowQualityImpressionsPercent",
		"LowQualitySophisticatedClicks",
	}

	commonRevenueMetrics = []string{
		"Revenue",
		"RevenuePerConversion",
	}

	allRevenueMetrics = []string{
		"AllRevenue",
		"AllRevenuePerConversion",
	}

	impressionMetrics = []string{
		"ImpressionLostToBudgetPercent",
		"ImpressionLostToRankAggPercent",
		"Impressions",
		"ImpressionSharePercent",
	}

	historicalMetrics = []string{
		"HistoricalAdRelevance",
		"HistoricalExpectedCtr",
		"HistoricalLandingPageExperience",
		"HistoricalQualityScore",
	}

	assistedMetrics = []string{
		"AssistedImpressions",
		"AssistedClicks",
	}

	commonPerformanceMetrics = []string{
		"Impressions",
		"Clicks",
		"Ctr",
		"Spend",
		"ReturnOnAdSpend",
		"AllConversionsQualified",
		"ViewThroughConversionsQualified",
	}

	// Only available with daily aggregation.
	dailyRestrictingPerformanceMetrics = []string{
		"AbsoluteTopImpressionRatePercent",
		"AbsoluteTopImpressionShareLostToBudgetPercent",
		"AbsoluteTopImpressionShareLostToRankPercent",
		"AbsoluteTopImpressionSharePercent",
		"ClickSharePercent",
		"ExactMatchImpressionSharePercent",
		"ImpressionLostToBudgetPercent",
		"ImpressionLostToRankAggPercent",
	}

	campaignMetrics = []string{
		"QualityScore",
		"ExpectedCtr",
		"AdRelevance",
		"LandingPageExperience",
	}

	customLabelColumns     = numbered("CustomLabel", 0, 4)
	productCategoryColumns = numbered("ProductCategory", 1, 5)
	productTypeColumns     = numbered("ProductType", 1, 5)
)

func numbered(prefix string, from, to int) []string {
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, fmt.Sprintf("%s%d", prefix, i))
	}
	return out
}
