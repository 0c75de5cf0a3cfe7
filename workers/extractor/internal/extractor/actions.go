package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"bingads-extractor/shared/observability"
	"bingads-extractor/workers/extractor/internal/auth"
	"bingads-extractor/workers/extractor/internal/domain"
	"bingads-extractor/workers/extractor/internal/settings"
	"bingads-extractor/workers/extractor/internal/state"
)

// SelectOption is one entry of a listing shown as a select element by the host UI.
type SelectOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ConnectionResult is printed by the testConnection action.
type ConnectionResult struct {
	Status     string `json:"status"`
	UserID     int64  `json:"user_id"`
	UserName   string `json:"user_name"`
	CustomerID int64  `json:"customer_id"`
}

// TestConnection authorizes and fetches the authenticated user.
func (e *Extractor) TestConnection(ctx context.Context, p settings.Parameters) error {
	ac, err := e.connect(ctx, p)
	if err != nil {
		return err
	}
	user, err := e.client(ac.Sandbox()).GetUser(ctx, ac)
	if err != nil {
		return err
	}
	e.logger.Info(ctx, "Connection test succeeded", observability.Fields{"user_id": user.Id})
	return e.emit(ConnectionResult{
		Status:     "success",
		UserID:     user.Id,
		UserName:   user.UserName,
		CustomerID: user.CustomerId,
	})
}

// ListAccounts prints the accounts reachable by the authenticated user.
func (e *Extractor) ListAccounts(ctx context.Context, p settings.Parameters) error {
	ac, err := e.connect(ctx, p)
	if err != nil {
		return err
	}
	accounts, err := e.client(ac.Sandbox()).GetAccountsInfo(ctx, ac)
	if err != nil {
		return err
	}

	opts := make([]SelectOption, 0, len(accounts))
	for _, a := range accounts {
		label := fmt.Sprintf("%s (%s)", a.Name, a.Number)
		if a.AccountLifeCycleStatus != "" && a.AccountLifeCycleStatus != "Active" {
			label += " - " + a.AccountLifeCycleStatus
		}
		opts = append(opts, SelectOption{Value: strconv.FormatInt(a.Id, 10), Label: label})
	}
	return e.emit(opts)
}

// ListPresets prints every prebuilt report configuration with its columns
// and primary key.
func (e *Extractor) ListPresets(_ context.Context) error {
	return e.emit(e.catalog.All())
}

// ListReportColumns prints the columns known for p.ReportType.
func (e *Extractor) ListReportColumns(_ context.Context, p settings.Parameters) error {
	reportType := strings.TrimSpace(p.ReportType)
	if reportType == "" {
		if r := p.Report(); r != nil {
			reportType = r.ReportType
		}
	}
	if reportType == "" {
		return domain.ConfigError("report_type", "report type is required")
	}
	reportType = strings.TrimSuffix(reportType, "Request")
	reportType = strings.TrimSuffix(reportType, "Report")

	columns, ok := e.metadata.ReportColumns(reportType)
	if !ok {
		return domain.ConfigError("report_type", "unknown report type %q", reportType)
	}
	return e.emit(options(columns))
}

// ListBulkEntities prints the entities a bulk download can request.
func (e *Extractor) ListBulkEntities(_ context.Context) error {
	return e.emit(options(e.metadata.BulkEntities()))
}

// connect authorizes for a sync action. A rotated refresh token is still
// saved so the next run can use it.
func (e *Extractor) connect(ctx context.Context, p settings.Parameters) (*auth.Context, error) {
	if err := p.ValidateConnection(); err != nil {
		return nil, err
	}
	session, err := state.Open(ctx, e.store, e.logger)
	if err != nil {
		return nil, err
	}
	return e.authorize(ctx, p, session)
}

func (e *Extractor) emit(v interface{}) error {
	if err := json.NewEncoder(e.out).Encode(v); err != nil {
		return fmt.Errorf("write action result: %w", err)
	}
	return nil
}

func options(values []string) []SelectOption {
	out := make([]SelectOption, len(values))
	for i, v := range values {
		out[i] = SelectOption{Value: v, Label: v}
	}
	return out
}
