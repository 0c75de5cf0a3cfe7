package bingads

import (
	"strconv"
	"strings"
	"time"

	"bingads-extractor/workers/extractor/internal/domain"
)

const (
	bulkFormatVersion = "6.0"
	compressionZip    = "Zip"
)

// BulkDownloadRequest is the body of Campaigns/DownloadByAccountIds.
type BulkDownloadRequest struct {
	AccountIds        []int64    `json:"AccountIds"`
	CompressionType   string     `json:"CompressionType"`
	DataScope         string     `json:"DataScope"`
	DownloadEntities  []string   `json:"DownloadEntities"`
	DownloadFileType  string     `json:"DownloadFileType"`
	FormatVersion     string     `json:"FormatVersion"`
	LastSyncTimeInUTC *time.Time `json:"LastSyncTimeInUTC,omitempty"`
}

type bulkSubmitResponse struct {
	DownloadRequestId string `json:"DownloadRequestId"`
}

type bulkStatusRequest struct {
	RequestId string `json:"RequestId"`
}

type bulkStatusResponse struct {
	PercentComplete int    `json:"PercentComplete"`
	RequestStatus   string `json:"RequestStatus"`
	ResultFileUrl   string `json:"ResultFileUrl"`
}

// ReportRequest is the polymorphic report request; Type selects the report.
type ReportRequest struct {
	Type                   string      `json:"Type"`
	ReportName             string      `json:"ReportName"`
	Format                 string      `json:"Format"`
	FormatVersion          string      `json:"FormatVersion"`
	ReturnOnlyCompleteData bool        `json:"ReturnOnlyCompleteData"`
	ExcludeColumnHeaders   bool        `json:"ExcludeColumnHeaders"`
	ExcludeReportHeader    bool        `json:"ExcludeReportHeader"`
	ExcludeReportFooter    bool        `json:"ExcludeReportFooter"`
	Aggregation            string      `json:"Aggregation"`
	Columns                []string    `json:"Columns"`
	Scope                  ReportScope `json:"Scope"`
	Time                   ReportTime  `json:"Time"`
}

type ReportScope struct {
	AccountIds []int64 `json:"AccountIds"`
}

type ReportTime struct {
	PredefinedTime       string `json:"PredefinedTime,omitempty"`
	CustomDateRangeStart *Date  `json:"CustomDateRangeStart,omitempty"`
	CustomDateRangeEnd   *Date  `json:"CustomDateRangeEnd,omitempty"`
	ReportTimeZone       string `json:"ReportTimeZone,omitempty"`
}

type Date struct {
	Day   int `json:"Day"`
	Month int `json:"Month"`
	Year  int `json:"Year"`
}

type reportSubmitRequest struct {
	ReportRequest ReportRequest `json:"ReportRequest"`
}

type reportSubmitResponse struct {
	ReportRequestId string `json:"ReportRequestId"`
}

type reportPollRequest struct {
	ReportRequestId string `json:"ReportRequestId"`
}

type reportPollResponse struct {
	ReportRequestStatus struct {
		ReportDownloadUrl string `json:"ReportDownloadUrl"`
		Status            string `json:"Status"`
	} `json:"ReportRequestStatus"`
}

// ParseAccountID converts a configured account id to the numeric wire form.
func ParseAccountID(id string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, domain.ConfigError("account_id", "%q is not a numeric account id", id)
	}
	return n, nil
}

// NewBulkRequest serializes spec for one account.
func NewBulkRequest(spec *domain.BulkSpec, accountID string) (BulkDownloadRequest, error) {
	id, err := ParseAccountID(accountID)
	if err != nil {
		return BulkDownloadRequest{}, err
	}
	req := BulkDownloadRequest{
		AccountIds:       []int64{id},
		CompressionType:  compressionZip,
		DataScope:        strings.Join(spec.DataScope, " "),
		DownloadEntities: append([]string(nil), spec.DownloadEntities...),
		DownloadFileType: domain.FileFormatCSV,
		FormatVersion:    bulkFormatVersion,
	}
	if spec.Since != nil {
		since := spec.Since.UTC()
		req.LastSyncTimeInUTC = &since
	}
	return req, nil
}

// NewReportRequest serializes spec for one account. Report header and footer
// rows are excluded so the result is a plain CSV table.
func NewReportRequest(spec *domain.ReportSpec, accountID string) (ReportRequest, error) {
	id, err := ParseAccountID(accountID)
	if err != nil {
		return ReportRequest{}, err
	}

	name := spec.ReportType
	if spec.PresetName != "" {
		name = spec.PresetName + " " + string(spec.Aggregation)
	}

	return ReportRequest{
		Type:                   spec.ReportType + "ReportRequest",
		ReportName:             name,
		Format:                 domain.FileFormatCSV,
		FormatVersion:          spec.FormatVersion,
		ReturnOnlyCompleteData: spec.ReturnOnlyCompleteData,
		ExcludeReportHeader:    true,
		ExcludeReportFooter:    true,
		Aggregation:            string(spec.Aggregation),
		Columns:                append([]string(nil), spec.Columns...),
		Scope:                  ReportScope{AccountIds: []int64{id}},
		Time:                   reportTime(spec.Time),
	}, nil
}

func reportTime(t domain.TimeSpec) ReportTime {
	rt := ReportTime{ReportTimeZone: t.TimeZone}
	if !t.IsCustom() {
		rt.PredefinedTime = t.PredefinedTime
		return rt
	}
	if t.From != nil {
		rt.CustomDateRangeStart = toDate(*t.From)
	}
	if t.To != nil {
		rt.CustomDateRangeEnd = toDate(*t.To)
	}
	return rt
}

func toDate(t time.Time) *Date {
	return &Date{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}
}

// User is the authenticated user returned by User/Query.
type User struct {
	Id       int64  `json:"Id"`
	UserName string `json:"UserName"`
	Name     struct {
		FirstName string `json:"FirstName"`
		LastName  string `json:"LastName"`
	} `json:"Name"`
	CustomerId int64 `json:"CustomerId"`
}

type getUserRequest struct {
	UserId *int64 `json:"UserId"`
}

type getUserResponse struct {
	User User `json:"User"`
}

// AccountInfo is one entry of AccountsInfo/Query.
type AccountInfo struct {
	Id                     int64  `json:"Id"`
	Name                   string `json:"Name"`
	Number                 string `json:"Number"`
	AccountLifeCycleStatus string `json:"AccountLifeCycleStatus"`
	PauseReason            *int   `json:"PauseReason,omitempty"`
}

type getAccountsInfoRequest struct {
	CustomerId         *int64 `json:"CustomerId"`
	OnlyParentAccounts bool   `json:"OnlyParentAccounts"`
}

type getAccountsInfoResponse struct {
	AccountsInfo []AccountInfo `json:"AccountsInfo"`
}
