package bingads

import (
	"context"
	"fmt"

	"bingads-extractor/workers/extractor/internal/auth"
	"bingads-extractor/workers/extractor/internal/domain"
)

// Raw status values of the two services.
const (
	BulkInProgress             = "InProgress"
	BulkCompleted              = "Completed"
	BulkFailed                 = "Failed"
	BulkFailedFullSyncRequired = "FailedFullSyncRequired"

	ReportPending = "Pending"
	ReportSuccess = "Success"
	ReportError   = "Error"
)

// BulkJob is one bulk download for a single account.
type BulkJob struct {
	client    *Client
	ac        *auth.Context
	request   BulkDownloadRequest
	requestID string
	resultURL string
}

// NewBulkJob prepares a bulk download for the account ac is scoped to.
func (c *Client) NewBulkJob(ac *auth.Context, spec *domain.BulkSpec) (*BulkJob, error) {
	req, err := NewBulkRequest(spec, ac.AccountID())
	if err != nil {
		return nil, err
	}
	return &BulkJob{client: c, ac: ac, request: req}, nil
}

func (j *BulkJob) Kind() domain.Kind { return domain.KindBulk }

func (j *BulkJob) RequestID() string { return j.requestID }

func (j *BulkJob) Submit(ctx context.Context) (string, error) {
	var resp bulkSubmitResponse
	if err := j.client.call(ctx, j.ac, "bulk_submit", j.client.config.Endpoints.Bulk,
		"/Campaigns/DownloadByAccountIds", j.request, &resp); err != nil {
		return "", err
	}
	if resp.DownloadRequestId == "" {
		return "", fmt.Errorf("bulk submit returned no request id")
	}
	j.requestID = resp.DownloadRequestId
	return BulkInProgress, nil
}

func (j *BulkJob) Poll(ctx context.Context) (string, error) {
	var resp bulkStatusResponse
	if err := j.client.call(ctx, j.ac, "bulk_poll", j.client.config.Endpoints.Bulk,
		"/BulkDownloadStatus/Query", bulkStatusRequest{RequestId: j.requestID}, &resp); err != nil {
		return "", err
	}
	j.resultURL = resp.ResultFileUrl
	return resp.RequestStatus, nil
}

func (j *BulkJob) Download(ctx context.Context, dir, name string) (string, error) {
	return j.client.Download(ctx, j.resultURL, dir, name)
}

// ReportJob is one report request for a single account.
type ReportJob struct {
	client    *Client
	ac        *auth.Context
	request   ReportRequest
	requestID string
	resultURL string
}

// NewReportJob prepares a report for the account ac is scoped to.
func (c *Client) NewReportJob(ac *auth.Context, spec *domain.ReportSpec) (*ReportJob, error) {
	req, err := NewReportRequest(spec, ac.AccountID())
	if err != nil {
		return nil, err
	}
	return &ReportJob{client: c, ac: ac, request: req}, nil
}

func (j *ReportJob) Kind() domain.Kind { return domain.KindReport }

func (j *ReportJob) RequestID() string { return j.requestID }

func (j *ReportJob) Submit(ctx context.Context) (string, error) {
	var resp reportSubmitResponse
	if err := j.client.call(ctx, j.ac, "report_submit", j.client.config.Endpoints.Reporting,
		"/GenerateReport/Submit", reportSubmitRequest{ReportRequest: j.request}, &resp); err != nil {
		return "", err
	}
	if resp.ReportRequestId == "" {
		return "", fmt.Errorf("report submit returned no request id")
	}
	j.requestID = resp.ReportRequestId
	return ReportPending, nil
}

func (j *ReportJob) Poll(ctx context.Context) (string, error) {
	var resp reportPollResponse
	if err := j.client.call(ctx, j.ac, "report_poll", j.client.config.Endpoints.Reporting,
		"/GenerateReport/Poll", reportPollRequest{ReportRequestId: j.requestID}, &resp); err != nil {
		return "", err
	}
	j.resultURL = resp.ReportRequestStatus.ReportDownloadUrl
	return resp.ReportRequestStatus.Status, nil
}

func (j *ReportJob) Download(ctx context.Context, dir, name string) (string, error) {
	return j.client.Download(ctx, j.resultURL, dir, name)
}
