// Package settings parses the per-job configuration document (config.json)
// written by the host orchestrator.
package settings

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"bingads-extractor/workers/extractor/internal/domain"
)

// Sync actions selectable through the "action" field.
const (
	ActionRun               = "run"
	ActionTestConnection    = "testConnection"
	ActionListAccounts      = "listAccounts"
	ActionListPresets       = "listPresets"
	ActionListReportColumns = "listReportColumns"
	ActionListBulkEntities  = "listBulkEntities"
)

// ObjectType selects what a run extracts.
type ObjectType string

const (
	ObjectEntity         ObjectType = "entity"
	ObjectReportPrebuilt ObjectType = "report_prebuilt"
	ObjectReportCustom   ObjectType = "report_custom"
)

// LoadType tells the output sink whether to append or replace.
type LoadType string

const (
	FullLoad        LoadType = "full_load"
	IncrementalLoad LoadType = "incremental_load"
)

const (
	EnvironmentProduction = "production"
	EnvironmentSandbox    = "sandbox"
)

// Document is the subset of config.json the extractor reads. yaml.v3 reads
// the JSON document directly.
type Document struct {
	Action        string           `yaml:"action"`
	Parameters    Parameters       `yaml:"parameters"`
	Authorization HostAuthorization `yaml:"authorization"`
}

// HostAuthorization carries the OAuth application and the tokens the host
// obtained when the user granted access.
type HostAuthorization struct {
	OAuthAPI struct {
		Credentials OAuthCredentials `yaml:"credentials"`
	} `yaml:"oauth_api"`
}

type OAuthCredentials struct {
	AppKey    string `yaml:"appKey"`
	AppSecret string `yaml:"#appSecret"`
	// Data is a JSON document serialized as a string.
	Data string `yaml:"#data"`
}

// RefreshToken extracts the refresh token from the credential data.
func (c OAuthCredentials) RefreshToken() (string, error) {
	if c.Data == "" {
		return "", nil
	}
	var data struct {
		RefreshToken string `yaml:"refresh_token"`
	}
	if err := yaml.Unmarshal([]byte(c.Data), &data); err != nil {
		return "", domain.ConfigError("authorization.oauth_api.credentials", "credential data is not valid JSON: %v", err)
	}
	return data.RefreshToken, nil
}

// Parameters is the user-editable part of the configuration.
type Parameters struct {
	Authorization  AccountSettings `yaml:"authorization"`
	ObjectType     ObjectType      `yaml:"object_type"`
	Destination    Destination     `yaml:"destination"`
	Bulk           *BulkSettings   `yaml:"bulk_settings"`
	ReportCustom   *ReportSettings `yaml:"report_settings_custom"`
	ReportPrebuilt *ReportSettings `yaml:"report_settings_prebuilt"`

	// ReportType is read by the listReportColumns action.
	ReportType string `yaml:"report_type"`
	Debug      bool   `yaml:"debug"`

	// Filled from the host authorization block by Load.
	ClientID     string `yaml:"-"`
	ClientSecret string `yaml:"-"`
	RefreshToken string `yaml:"-"`
}

type AccountSettings struct {
	DeveloperToken string     `yaml:"#developer_token"`
	CustomerID     string     `yaml:"customer_id"`
	AccountIDs     StringList `yaml:"account_id"`
	Environment    string     `yaml:"environment"`
}

type Destination struct {
	TableName string   `yaml:"table_name"`
	LoadType  LoadType `yaml:"load_type"`
}

// Incremental reports whether output tables are loaded incrementally.
func (d Destination) Incremental() bool {
	return d.LoadType == IncrementalLoad
}

type BulkSettings struct {
	DataScope        StringList `yaml:"data_scope"`
	DownloadEntities StringList `yaml:"download_entities"`
	SinceLastRun     bool       `yaml:"since_last_run"`
}

// ReportSettings covers both custom and prebuilt reports; a prebuilt report
// names a preset and may override its columns and primary key.
type ReportSettings struct {
	PresetName             string     `yaml:"preset_name"`
	ReportType             string     `yaml:"report_type"`
	Columns                StringList `yaml:"columns"`
	PrimaryKey             StringList `yaml:"primary_key"`
	Aggregation            string     `yaml:"aggregation"`
	TimeRange              TimeRange  `yaml:"time_range"`
	TimeZone               string     `yaml:"time_zone"`
	ReturnOnlyCompleteData *bool      `yaml:"return_only_complete_data"`
	FormatVersion          string     `yaml:"format_version"`
}

type TimeRange struct {
	Period   string `yaml:"period"`
	DateFrom string `yaml:"date_from"`
	DateTo   string `yaml:"date_to"`
}

// Load reads and parses path.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ConfigError("config.json", "configuration file %s does not exist", path)
		}
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a configuration document and applies defaults.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, domain.ConfigError("config.json", "cannot parse configuration: %v", err)
	}

	creds := doc.Authorization.OAuthAPI.Credentials
	token, err := creds.RefreshToken()
	if err != nil {
		return nil, err
	}
	doc.Parameters.ClientID = creds.AppKey
	doc.Parameters.ClientSecret = creds.AppSecret
	doc.Parameters.RefreshToken = token

	doc.applyDefaults()
	return &doc, nil
}

func (d *Document) applyDefaults() {
	if d.Action == "" {
		d.Action = ActionRun
	}
	p := &d.Parameters
	if p.Authorization.Environment == "" {
		p.Authorization.Environment = EnvironmentProduction
	}
	if p.Destination.LoadType == "" {
		p.Destination.LoadType = FullLoad
	}
}

// Report returns the report settings block matching the object type.
func (p Parameters) Report() *ReportSettings {
	switch p.ObjectType {
	case ObjectReportPrebuilt:
		return p.ReportPrebuilt
	case ObjectReportCustom:
		return p.ReportCustom
	}
	return nil
}
