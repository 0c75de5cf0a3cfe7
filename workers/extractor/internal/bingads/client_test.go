package bingads

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"bingads-extractor/shared/observability/mocks"
	"bingads-extractor/workers/extractor/internal/auth"
	"bingads-extractor/workers/extractor/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(accountID string) *auth.Context {
	return auth.NewContext(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "access"}), auth.Credentials{
		DeveloperToken: "dev-token",
		CustomerID:     "900",
		AccountIDs:     []string{accountID},
	})
}

func testClient(base string, failures uint32) *Client {
	return NewClient(ClientConfig{
		Endpoints:        Endpoints{Bulk: base + "/bulk", Reporting: base + "/reporting", Customer: base + "/customer"},
		Timeout:          5 * time.Second,
		DownloadTimeout:  5 * time.Second,
		RateLimit:        1000,
		RateBurst:        100,
		BreakerFailures:  failures,
		BreakerOpenDelay: time.Minute,
	}, mocks.NewNopLogger(), mocks.NewNopMetrics())
}

func zipped(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestBulkJob_RoundTrip(t *testing.T) {
	archive := zipped(t, "result.csv", "Type,Id\nCampaign,1\n")
	var submitted BulkDownloadRequest

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/bulk/Campaigns/DownloadByAccountIds", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
		assert.Equal(t, "dev-token", r.Header.Get("DeveloperToken"))
		assert.Equal(t, "900", r.Header.Get("CustomerId"))
		assert.Equal(t, "123", r.Header.Get("CustomerAccountId"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
		_ = json.NewEncoder(w).Encode(map[string]string{"DownloadRequestId": "req-1"})
	})
	mux.HandleFunc("/bulk/BulkDownloadStatus/Query", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "req-1", body["RequestId"])
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"RequestStatus":   BulkCompleted,
			"PercentComplete": 100,
			"ResultFileUrl":   server.URL + "/files/result.zip",
		})
	})
	mux.HandleFunc("/files/result.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})

	since := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	job, err := testClient(server.URL, 5).NewBulkJob(testContext("123"), &domain.BulkSpec{
		DataScope:        []string{domain.EntityData},
		DownloadEntities: []string{"Campaigns", "AdGroups"},
		Since:            &since,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KindBulk, job.Kind())

	ctx := context.Background()
	status, err := job.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, BulkInProgress, status)
	assert.Equal(t, "req-1", job.RequestID())
	assert.Equal(t, []int64{123}, submitted.AccountIds)
	assert.Equal(t, "EntityData", submitted.DataScope)
	assert.Equal(t, []string{"Campaigns", "AdGroups"}, submitted.DownloadEntities)
	require.NotNil(t, submitted.LastSyncTimeInUTC)
	assert.True(t, since.Equal(*submitted.LastSyncTimeInUTC))

	status, err = job.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, BulkCompleted, status)

	dir := t.TempDir()
	path, err := job.Download(ctx, dir, "Entities.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Entities.csv"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Type,Id\nCampaign,1\n", string(content))
}

func TestReportJob_Fault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"FaultString": "Invalid client data.",
			"Detail": map[string]interface{}{
				"ApiFaultDetail": map[string]interface{}{
					"OperationErrors": map[string]interface{}{
						"OperationError": map[string]interface{}{"Code": 2003, "Message": "Invalid column."},
					},
				},
			},
		})
	}))
	defer server.Close()

	job, err := testClient(server.URL, 5).NewReportJob(testContext("123"), &domain.ReportSpec{
		ReportType:  "AccountPerformance",
		Aggregation: domain.Daily,
		Columns:     []string{"AccountId", "TimePeriod"},
		Time:        domain.TimeSpec{PredefinedTime: "Yesterday"},
	})
	require.NoError(t, err)

	_, err = job.Submit(context.Background())

	require.Error(t, err)
	assert.Equal(t, domain.VendorFault, domain.KindOf(err))
	assert.Contains(t, err.Error(), "Code: 2003, Message: Invalid column.")
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected domain.ErrorKind
	}{
		{name: "server error", status: http.StatusServiceUnavailable, body: "busy", expected: domain.TransientNetwork},
		{name: "throttled", status: http.StatusTooManyRequests, body: "", expected: domain.TransientNetwork},
		{name: "client error without fault", status: http.StatusForbidden, body: "denied", expected: domain.VendorFault},
		{name: "server error with fault", status: http.StatusInternalServerError, body: `{"FaultString":"Internal error."}`, expected: domain.VendorFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := testClient(server.URL, 5).GetUser(context.Background(), testContext("1"))

			require.Error(t, err)
			assert.Equal(t, tt.expected, domain.KindOf(err))
		})
	}
}

func TestClient_BreakerOpens(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := testClient(server.URL, 2)
	ac := testContext("1")
	for i := 0; i < 3; i++ {
		_, err := client.GetAccountsInfo(context.Background(), ac)
		require.Error(t, err)
		assert.Equal(t, domain.TransientNetwork, domain.KindOf(err))
	}

	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClient_GetAccountsInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customer/AccountsInfo/Query", r.URL.Path)
		assert.Empty(t, r.Header.Get("CustomerAccountId"))
		_, _ = w.Write([]byte(`{"AccountsInfo":[{"Id":7,"Name":"Main","Number":"X1","AccountLifeCycleStatus":"Active"}]}`))
	}))
	defer server.Close()

	ac := auth.NewContext(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "access"}), auth.Credentials{
		DeveloperToken: "dev-token",
		AccountIDs:     []string{"7", "8"},
	})
	accounts, err := testClient(server.URL, 5).GetAccountsInfo(context.Background(), ac)

	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, int64(7), accounts[0].Id)
	assert.Equal(t, "Active", accounts[0].AccountLifeCycleStatus)
}

func TestDownload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/plain.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("A,B\n1,2\n"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := testClient(server.URL, 5)
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("empty url", func(t *testing.T) {
		path, err := client.Download(ctx, "", dir, "none.csv")
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.NoFileExists(t, filepath.Join(dir, "none.csv"))
	})

	t.Run("plain file overwrites", func(t *testing.T) {
		target := filepath.Join(dir, "out.csv")
		require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))

		path, err := client.Download(ctx, server.URL+"/plain.csv", dir, "out.csv")
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "A,B\n1,2\n", string(content))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := client.Download(ctx, server.URL+"/missing", dir, "x.csv")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	})
}

func TestNewReportRequest(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

	req, err := NewReportRequest(&domain.ReportSpec{
		ReportType:             "CampaignPerformance",
		PresetName:             "CampaignPerformance",
		Aggregation:            domain.Hourly,
		Columns:                []string{"CampaignId", "TimePeriod"},
		Time:                   domain.TimeSpec{From: &from, To: &to, TimeZone: "PacificTimeUSCanadaTijuana"},
		ReturnOnlyCompleteData: true,
		FormatVersion:          "2.0",
	}, "42")
	require.NoError(t, err)

	assert.Equal(t, "CampaignPerformanceReportRequest", req.Type)
	assert.Equal(t, "Hourly", req.Aggregation)
	assert.Equal(t, []int64{42}, req.Scope.AccountIds)
	assert.True(t, req.ExcludeReportHeader)
	assert.True(t, req.ExcludeReportFooter)
	assert.False(t, req.ExcludeColumnHeaders)
	assert.Empty(t, req.Time.PredefinedTime)
	assert.Equal(t, &Date{Day: 1, Month: 3, Year: 2024}, req.Time.CustomDateRangeStart)
	assert.Equal(t, &Date{Day: 14, Month: 3, Year: 2024}, req.Time.CustomDateRangeEnd)
	assert.Equal(t, "PacificTimeUSCanadaTijuana", req.Time.ReportTimeZone)

	_, err = NewReportRequest(&domain.ReportSpec{ReportType: "X"}, "not-a-number")
	assert.Equal(t, domain.Configuration, domain.KindOf(err))
}

func TestEndpoints(t *testing.T) {
	prod := DefaultEndpoints(false)
	sandbox := DefaultEndpoints(true)

	assert.Contains(t, prod.Bulk, "bulk.api.bingads.microsoft.com")
	assert.Contains(t, sandbox.Reporting, "sandbox")
}
