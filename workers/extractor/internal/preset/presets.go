package preset

import "bingads-extractor/workers/extractor/internal/domain"

func both(set ColumnSet) map[domain.Aggregation]ColumnSet {
	return map[domain.Aggregation]ColumnSet{domain.Daily: set, domain.Hourly: set}
}

// defaultDefinitions composes the built-in presets. Impression presets merge
// overlapping metric groups on purpose; everything else must compose
// without duplicates.
func defaultDefinitions() ([]Definition, error) {
	var c composer

	accountAndCampaignPrimaryKey := c.unique(commonPrimaryKey, []string{"AccountId"})
	restrictedPrimaryKey := c.unique(
		[]string{"BidMatchType", "DeviceOS", "Goal", "GoalType"},
		topVsOtherPrimaryKey,
	)
	productDimensionPrimaryKey := c.unique(
		commonPrimaryKey,
		campaignPrimaryKey,
		adGroupPrimaryKey,
		adPrimaryKey,
		languagePrimaryKey,
		topVsOtherPrimaryKey,
		[]string{"MerchantProductId", "Condition", "Price", "ClickTypeId", "BidStrategyType", "StoreId"},
	)

	allAverageMetrics := c.unique(averageCostMetrics, []string{"AveragePosition"})
	accountAndCampaignRevenueMetrics := c.unique(commonRevenueMetrics, []string{"RevenuePerAssist"})
	accountAndCampaignPerformanceMetrics := c.unique(
		commonPerformanceMetrics,
		[]string{"PhoneImpressions", "PhoneCalls", "CostPerConversion", "Ptr", "Assists", "CostPerAssist"},
	)
	geographicPerformanceMetrics := c.unique(
		commonPerformanceMetrics,
		[]string{"Radius", "CostPerConversion", "CostPerAssist", "Assists"},
		conversionMetrics,
	)

	accountAndCampaignPerformancePrimaryKey := c.unique(accountAndCampaignPrimaryKey, []string{"DeliveredMatchType"})

	accountPerformance := ColumnSet{
		Columns: c.unique(
			accountAndCampaignPerformancePrimaryKey,
			restrictedPrimaryKey,
			accountAndCampaignPerformanceMetrics,
			allAverageMetrics,
			conversionMetrics,
			lowQualityMetrics,
			accountAndCampaignRevenueMetrics,
		),
		PrimaryKey: c.unique(accountAndCampaignPerformancePrimaryKey, restrictedPrimaryKey),
	}

	campaignPerformancePrimaryKey := c.unique(accountAndCampaignPerformancePrimaryKey, campaignPrimaryKey)
	campaignPerformanceColumns := c.unique(
		campaignPerformancePrimaryKey,
		campaignColumns,
		campaignMetrics,
		accountAndCampaignPerformanceMetrics,
		allRevenueMetrics,
		allAverageMetrics,
		conversionMetrics,
		lowQualityMetrics,
		accountAndCampaignRevenueMetrics,
	)

	adGroupPerformancePrimaryKey := c.unique(campaignPerformancePrimaryKey, adGroupPrimaryKey, languagePrimaryKey)
	adGroupPerformanceColumns := c.unique(
		adGroupPerformancePrimaryKey,
		accountAndCampaignPerformanceMetrics,
		campaignMetrics,
		campaignColumns,
		[]string{"FinalUrlSuffix"},
		allRevenueMetrics,
		allAverageMetrics,
		conversionMetrics,
		accountAndCampaignRevenueMetrics,
	)

	productDimension := ColumnSet{
		Columns: c.unique(
			productDimensionPrimaryKey,
			[]string{
				"Brand",
				"LocalStoreCode",
				"ClickType",
				"Title",
				"SellerName",
				"OfferLanguage",
				"CountryOfSale",
				"TotalClicksOnAdElements",
			},
			customLabelColumns,
			productCategoryColumns,
			productTypeColumns,
			commonPerformanceMetrics,
			conversionMetrics,
			commonRevenueMetrics,
			assistedMetrics,
			averageCostMetrics,
		),
		PrimaryKey: c.unique(productDimensionPrimaryKey),
	}

	geographic := ColumnSet{
		Columns: c.unique(
			campaignPerformancePrimaryKey,
			accountNamePrimaryKey,
			restrictedPrimaryKey,
			geographicPrimaryKey,
			geographicPerformanceMetrics,
		),
		PrimaryKey: c.unique(campaignPerformancePrimaryKey, restrictedPrimaryKey, geographicPrimaryKey),
	}

	// Name columns sit next to the ids they describe.
	accountPerformance.Columns = insertAt(accountPerformance.Columns, 6, "AccountName")
	accountColumnsWithNames := insertAt(accountAndCampaignPerformancePrimaryKey, 6, "AccountName")
	adGroupPerformanceColumns = insertAt(adGroupPerformanceColumns, 6, "AccountName")
	adGroupPerformanceColumns = insertAt(adGroupPerformanceColumns, 9, "CampaignName")
	adGroupPerformanceColumns = insertAt(adGroupPerformanceColumns, 11, "AdGroupName")
	campaignPerformanceColumns = insertAt(campaignPerformanceColumns, 6, "AccountName")
	campaignPerformanceColumns = insertAt(campaignPerformanceColumns, 9, "CampaignName")
	productDimension.Columns = insertAt(productDimension.Columns, 6, "CampaignName")
	productDimension.Columns = insertAt(productDimension.Columns, 8, "AdGroupName")
	geographic.Columns = insertAt(geographic.Columns, 8, "CampaignName")

	adGroupRestrictedPrimaryKey := c.unique(adGroupPerformancePrimaryKey, restrictedPrimaryKey)
	campaignRestrictedPrimaryKey := c.unique(campaignPerformancePrimaryKey, restrictedPrimaryKey)

	defs := []Definition{
		{
			Name:          "AccountPerformance",
			ReportType:    "AccountPerformance",
			ByAggregation: both(accountPerformance),
		},
		{
			Name:       "AccountImpressionPerformance",
			ReportType: "AccountPerformance",
			ByAggregation: map[domain.Aggregation]ColumnSet{
				domain.Daily: {
					Columns: Merge(
						accountColumnsWithNames,
						accountAndCampaignPerformanceMetrics,
						dailyRestrictingPerformanceMetrics,
						allAverageMetrics,
						conversionMetrics,
						lowQualityMetrics,
						accountAndCampaignRevenueMetrics,
						impressionMetrics,
					),
					PrimaryKey: accountAndCampaignPerformancePrimaryKey,
				},
				domain.Hourly: {
					Columns: c.unique(
						accountColumnsWithNames,
						accountAndCampaignPerformanceMetrics,
						allAverageMetrics,
						conversionMetrics,
						lowQualityMetrics,
						accountAndCampaignRevenueMetrics,
					),
					PrimaryKey: accountAndCampaignPerformancePrimaryKey,
				},
			},
		},
		{
			Name:       "AdGroupPerformance",
			ReportType: "AdGroupPerformance",
			ByAggregation: map[domain.Aggregation]ColumnSet{
				domain.Daily: {
					Columns:    c.unique(adGroupPerformanceColumns, restrictedPrimaryKey, historicalMetrics),
					PrimaryKey: adGroupRestrictedPrimaryKey,
				},
				domain.Hourly: {
					Columns:    c.unique(adGroupPerformanceColumns, restrictedPrimaryKey),
					PrimaryKey: adGroupRestrictedPrimaryKey,
				},
			},
		},
		{
			Name:       "AdGroupImpressionPerformance",
			ReportType: "AdGroupPerformance",
			ByAggregation: map[domain.Aggregation]ColumnSet{
				domain.Daily: {
					Columns: Merge(
						adGroupPerformanceColumns,
						dailyRestrictingPerformanceMetrics,
						impressionMetrics,
						historicalMetrics,
					),
					PrimaryKey: adGroupPerformancePrimaryKey,
				},
				domain.Hourly: {
					Columns:    c.unique(adGroupPerformanceColumns),
					PrimaryKey: adGroupPerformancePrimaryKey,
				},
			},
		},
		{
			Name:       "CampaignPerformance",
			ReportType: "CampaignPerformance",
			ByAggregation: map[domain.Aggregation]ColumnSet{
				domain.Daily: {
					Columns:    c.unique(campaignPerformanceColumns, restrictedPrimaryKey, budgetColumns, historicalMetrics),
					PrimaryKey: campaignRestrictedPrimaryKey,
				},
				domain.Hourly: {
					Columns:    c.unique(campaignPerformanceColumns, restrictedPrimaryKey, budgetColumns),
					PrimaryKey: campaignRestrictedPrimaryKey,
				},
			},
		},
		{
			Name:       "CampaignImpressionPerformance",
			ReportType: "CampaignPerformance",
			ByAggregation: map[domain.Aggregation]ColumnSet{
				domain.Daily: {
					Columns: Merge(
						campaignPerformanceColumns,
						dailyRestrictingPerformanceMetrics,
						impressionMetrics,
						historicalMetrics,
					),
					PrimaryKey: campaignPerformancePrimaryKey,
				},
				domain.Hourly: {
					Columns:    c.unique(campaignPerformanceColumns),
					PrimaryKey: campaignPerformancePrimaryKey,
				},
			},
		},
		{
			Name:          "ProductDimensionPerformance",
			ReportType:    "ProductDimensionPerformance",
			ByAggregation: both(productDimension),
		},
		{
			Name:       "KeywordPerformance",
			ReportType: "KeywordPerformance",
			ByAggregation: map[domain.Aggregation]ColumnSet{
				domain.Daily:  {Columns: keywordDailyColumns, PrimaryKey: keywordPrimaryKey},
				domain.Hourly: {Columns: keywordHourlyColumns, PrimaryKey: keywordPrimaryKey},
			},
		},
		{
			Name:          "GeographicPerformance",
			ReportType:    "GeographicPerformance",
			ByAggregation: both(geographic),
		},
		{
			Name:          "AssetPerformance",
			ReportType:    "AssetPerformance",
			ByAggregation: both(ColumnSet{Columns: assetColumns, PrimaryKey: assetPrimaryKey}),
		},
		{
			Name:          "AssetGroupPerformance",
			ReportType:    "AssetGroupPerformance",
			ByAggregation: both(ColumnSet{Columns: assetGroupColumns, PrimaryKey: assetGroupPrimaryKey}),
		},
	}

	if c.err != nil {
		return nil, c.err
	}
	return defs, nil
}

var (
	keywordPrimaryKey = []string{
		"AccountId", "CampaignId", "AdGroupId", "KeywordId", "AdId", "TimePeriod", "CurrencyCode",
		"DeliveredMatchType", "AdDistribution", "DeviceType", "Language", "Network", "DeviceOS",
		"TopVsOther", "BidMatchType",
	}

	keywordDailyColumns = []string{
		"AccountId", "AccountName", "CampaignId", "CampaignName", "AdGroupId", "AdGroupName",
		"KeywordId", "Keyword", "AdId", "TimePeriod", "CurrencyCode",
		"DeliveredMatchType", "AdDistribution", "DeviceType", "Language", "Network", "DeviceOS",
		"TopVsOther", "BidMatchType", "KeywordStatus", "Impressions", "Clicks", "Ctr",
		"CurrentMaxCpc", "AverageCpc", "Spend", "AveragePosition", "Conversions",
		"ConversionsQualified", "ConversionRate", "CostPerConversion", "QualityScore",
		"ExpectedCtr", "AdRelevance", "LandingPageExperience", "QualityImpact", "Assists",
		"ReturnOnAdSpend", "CostPerAssist", "CustomParameters", "FinalAppUrl", "Mainline1Bid",
		"MainlineBid", "FirstPageBid", "FinalUrlSuffix", "ViewThroughConversions",
		"ViewThroughConversionsQualified", "AllCostPerConversion", "AllReturnOnAdSpend",
		"AllConversionsQualified", "AllRevenue", "AllRevenuePerConversion", "HistoricalAdRelevance",
		"HistoricalExpectedCtr", "HistoricalLandingPageExperience", "HistoricalQualityScore",
		"Revenue", "RevenuePerAssist", "RevenuePerConversion",
	}

	keywordHourlyColumns = []string{
		"AccountId", "AccountName", "CampaignId", "CampaignName", "AdGroupId", "AdGroupName",
		"KeywordId", "Keyword", "AdId", "TimePeriod", "CurrencyCode",
		"DeliveredMatchType", "AdDistribution", "DeviceType", "Language", "Network", "DeviceOS",
		"TopVsOther", "BidMatchType", "KeywordStatus", "Impressions", "Clicks", "Ctr",
		"CurrentMaxCpc", "AverageCpc", "Spend", "AveragePosition", "Conversions", "ConversionRate",
		"CostPerConversion", "QualityScore", "ExpectedCtr", "AdRelevance", "LandingPageExperience",
		"QualityImpact", "Assists", "ReturnOnAdSpend", "CostPerAssist", "CustomParameters",
		"FinalAppUrl", "FinalUrlSuffix", "Mainline1Bid", "MainlineBid", "FirstPageBid",
		"ViewThroughConversions", "AllCostPerConversion", "AllReturnOnAdSpend",
		"AllConversionsQualified", "AllRevenue", "AllRevenuePerConversion", "Revenue",
		"RevenuePerAssist", "RevenuePerConversion",
	}

	assetPrimaryKey = []string{
		"AccountId", "AccountName", "AdGroupId", "AdGroupName", "AssetContent", "AssetId",
		"AssetSource", "AssetType", "CampaignId", "CampaignName", "TimePeriod",
	}

	assetColumns = []string{
		"AccountId", "AccountName", "AdGroupId", "AdGroupName", "AssetContent", "AssetId",
		"AssetSource", "AssetType", "CampaignId", "CampaignName", "Clicks", "CompletedVideoViews",
		"Conversions", "Ctr", "Impressions", "Revenue", "Spend", "TimePeriod", "VideoCompletionRate",
		"VideoViews", "VideoViewsAt25Percent", "VideoViewsAt50Percent", "VideoViewsAt75Percent",
	}

	assetGroupPrimaryKey = []string{
		"AccountId", "AccountName", "AccountStatus", "AssetGroupId", "AssetGroupName",
		"AssetGroupStatus", "CampaignId", "CampaignName", "CampaignStatus", "CampaignType", "TimePeriod",
	}

	assetGroupColumns = []string{
		"AccountId", "AccountName", "AccountStatus", "AssetGroupId", "AssetGroupName",
		"AssetGroupStatus", "AverageCpc", "CampaignId", "CampaignName", "CampaignStatus",
		"CampaignType", "Clicks", "Conversions", "Ctr", "Impressions", "ReturnOnAdSpend",
		"Revenue", "Spend", "TimePeriod",
	}
)
