package settings

import (
	"strconv"
	"strings"

	"bingads-extractor/workers/extractor/internal/domain"
)

// ValidateConnection checks what every remote call needs.
func (p Parameters) ValidateConnection() error {
	a := p.Authorization
	if strings.TrimSpace(a.DeveloperToken) == "" {
		return domain.ConfigError("authorization.#developer_token", "developer token is required")
	}
	if p.ClientID == "" {
		return domain.ConfigError("authorization.oauth_api", "OAuth application is not configured; authorize the configuration first")
	}
	if a.Environment != EnvironmentProduction && a.Environment != EnvironmentSandbox {
		return domain.ConfigError("authorization.environment", "must be %q or %q, got %q",
			EnvironmentProduction, EnvironmentSandbox, a.Environment)
	}
	return nil
}

// Validate checks a run configuration. Detailed checks of the report and
// bulk blocks happen when the request descriptor is built.
func (p Parameters) Validate() error {
	if err := p.ValidateConnection(); err != nil {
		return err
	}
	if p.Authorization.CustomerID == "" {
		return domain.ConfigError("authorization.customer_id", "customer id is required")
	}
	if len(p.Authorization.AccountIDs) == 0 {
		return domain.ConfigError("authorization.account_id", "at least one account id is required")
	}
	for _, id := range p.Authorization.AccountIDs {
		if n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64); err != nil || n <= 0 {
			return domain.ConfigError("authorization.account_id", "%q is not a numeric account id", id)
		}
	}

	switch p.Destination.LoadType {
	case FullLoad, IncrementalLoad:
	default:
		return domain.ConfigError("destination.load_type", "must be %q or %q, got %q",
			FullLoad, IncrementalLoad, p.Destination.LoadType)
	}

	switch p.ObjectType {
	case ObjectEntity:
		if p.Bulk == nil {
			return domain.ConfigError("bulk_settings", "required for object type %q", p.ObjectType)
		}
	case ObjectReportPrebuilt:
		if p.ReportPrebuilt == nil {
			return domain.ConfigError("report_settings_prebuilt", "required for object type %q", p.ObjectType)
		}
		if p.ReportPrebuilt.PresetName == "" {
			return domain.ConfigError("report_settings_prebuilt.preset_name", "preset name is required")
		}
	case ObjectReportCustom:
		if p.ReportCustom == nil {
			return domain.ConfigError("report_settings_custom", "required for object type %q", p.ObjectType)
		}
		if p.ReportCustom.ReportType == "" {
			return domain.ConfigError("report_settings_custom.report_type", "report type is required")
		}
	default:
		return domain.ConfigError("object_type", "must be one of %q, %q or %q, got %q",
			ObjectEntity, ObjectReportPrebuilt, ObjectReportCustom, p.ObjectType)
	}

	if r := p.Report(); r != nil {
		if _, ok := domain.ParseAggregation(r.Aggregation); !ok {
			return domain.ConfigError(p.BlockName()+".aggregation", "must be %q or %q, got %q",
				domain.Daily, domain.Hourly, r.Aggregation)
		}
	}
	return nil
}

// BlockName is the key of the settings block used by the object type.
func (p Parameters) BlockName() string {
	switch p.ObjectType {
	case ObjectEntity:
		return "bulk_settings"
	case ObjectReportPrebuilt:
		return "report_settings_prebuilt"
	case ObjectReportCustom:
		return "report_settings_custom"
	}
	return "parameters"
}
