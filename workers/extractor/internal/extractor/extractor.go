// Package extractor runs one invocation of the component: a full extraction
// or one of the synchronous listing actions selected by config.json.
package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"bingads-extractor/shared/config"
	"bingads-extractor/shared/observability"
	logctx "bingads-extractor/shared/observability/logger"
	"bingads-extractor/shared/retry"
	"bingads-extractor/shared/storage/types"
	"bingads-extractor/workers/extractor/internal/auth"
	"bingads-extractor/workers/extractor/internal/bingads"
	"bingads-extractor/workers/extractor/internal/domain"
	"bingads-extractor/workers/extractor/internal/metadata"
	"bingads-extractor/workers/extractor/internal/operation"
	"bingads-extractor/workers/extractor/internal/output"
	"bingads-extractor/workers/extractor/internal/preset"
	"bingads-extractor/workers/extractor/internal/request"
	"bingads-extractor/workers/extractor/internal/settings"
	"bingads-extractor/workers/extractor/internal/state"
)

type Extractor struct {
	cfg        *config.Config
	store      state.Store
	catalog    *preset.Catalog
	metadata   *metadata.Provider
	builder    *request.Builder
	publisher  *output.Publisher
	obs        observability.Provider
	httpClient *http.Client
	out        io.Writer
	now        func() time.Time
	logger     observability.Logger
	metrics    observability.Metrics
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithOutput sets where sync actions print their JSON result. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Extractor) {
		e.out = w
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// WithHTTPClient sets the client used for the token endpoint and, through
// its transport, for the advertising API.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) {
		e.httpClient = c
	}
}

func New(cfg *config.Config, store state.Store, storage types.ObjectStorage, obs observability.Provider, opts ...Option) (*Extractor, error) {
	catalog, err := preset.DefaultCatalog()
	if err != nil {
		return nil, err
	}
	meta, err := metadata.New()
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		cfg:        cfg,
		store:      store,
		catalog:    catalog,
		metadata:   meta,
		obs:        obs,
		httpClient: &http.Client{Timeout: cfg.HTTP.Timeout},
		out:        os.Stdout,
		now:        time.Now,
		logger:     obs.Logger("extractor"),
		metrics:    obs.Metrics("extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.builder = request.NewBuilder(catalog, meta, obs.Logger("request"), request.WithClock(e.now))
	e.publisher = output.NewPublisher(storage, obs.Logger("output"), obs.Metrics("output"))
	return e, nil
}

// Execute dispatches doc.Action. Every invocation gets its own run id.
func (e *Extractor) Execute(ctx context.Context, doc *settings.Document) error {
	ctx = logctx.WithRunID(ctx, uuid.NewString())
	action := doc.Action
	if action == "" {
		action = settings.ActionRun
	}

	start := time.Now()
	e.metrics.StartOperation(action)
	defer e.metrics.EndOperation(action)

	e.logger.Info(ctx, "Starting action", observability.Fields{"action": action})

	var err error
	switch action {
	case settings.ActionRun:
		err = e.Run(ctx, doc.Parameters)
	case settings.ActionTestConnection:
		err = e.TestConnection(ctx, doc.Parameters)
	case settings.ActionListAccounts:
		err = e.ListAccounts(ctx, doc.Parameters)
	case settings.ActionListPresets:
		err = e.ListPresets(ctx)
	case settings.ActionListReportColumns:
		err = e.ListReportColumns(ctx, doc.Parameters)
	case settings.ActionListBulkEntities:
		err = e.ListBulkEntities(ctx)
	default:
		err = domain.ConfigError("action", "unsupported action %q", action)
	}

	e.metrics.RecordDuration(action, time.Since(start).Seconds())
	if err != nil {
		e.metrics.RecordError(action, domain.KindOf(err).String())
		e.logger.Error(ctx, "Action failed", err, observability.Fields{
			"action":     action,
			"error_kind": domain.KindOf(err).String(),
		})
		return err
	}
	e.metrics.RecordSuccess(action)
	return nil
}

// Run performs a full extraction: load state, build the request, authorize,
// process one remote job per account, publish the tables and advance the
// sync time.
func (e *Extractor) Run(ctx context.Context, p settings.Parameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	syncTime := e.now()

	session, err := state.Open(ctx, e.store, e.logger)
	if err != nil {
		return err
	}

	desc, err := e.builder.Build(ctx, p, session.LastSync())
	if err != nil {
		return err
	}
	ctx = logctx.WithOperation(ctx, strings.ToLower(string(desc.Kind)))

	ac, err := e.authorize(ctx, p, session)
	if err != nil {
		return err
	}
	client := e.client(ac.Sandbox())

	staging, err := os.MkdirTemp("", "bingads-staging-")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	accounts := ac.AccountIDs()
	ops := make([]*operation.Operation, 0, len(accounts))
	policy := retry.FromConfig(e.cfg.Retry)
	for _, accountID := range accounts {
		job, err := newJob(client, ac.ForAccount(accountID), desc)
		if err != nil {
			return err
		}
		ops = append(ops, operation.New(job, staging, StagingName(desc.FileName, accountID), policy, e.logger))
	}

	e.logger.Info(ctx, "Processing remote jobs", observability.Fields{
		"kind":     string(desc.Kind),
		"accounts": len(accounts),
		"file":     desc.FileName,
	})
	if err := operation.RunBatch(ctx, ops, e.cfg.Polling.Interval); err != nil {
		return err
	}

	results := make([]output.AccountResult, len(ops))
	for i, op := range ops {
		results[i] = output.AccountResult{AccountID: accounts[i], Path: op.Path()}
	}
	keys, err := e.publisher.Publish(ctx, results, desc.PrimaryKey, output.Destination{
		FileName:    desc.FileName,
		Incremental: p.Destination.Incremental(),
	})
	if err != nil {
		return err
	}

	if err := session.Complete(ctx, syncTime); err != nil {
		return err
	}

	e.logger.Info(ctx, "Extraction finished", observability.Fields{
		"tables":    keys,
		"sync_time": state.FormatSyncTime(syncTime),
	})
	return nil
}

// StagingName is the per-account staging file name, {stem}_{accountID}.csv.
func StagingName(fileName, accountID string) string {
	return fmt.Sprintf("%s_%s.csv", strings.TrimSuffix(fileName, ".csv"), accountID)
}

func (e *Extractor) authorize(ctx context.Context, p settings.Parameters, session *state.Session) (*auth.Context, error) {
	authorizer := auth.NewAuthorizer(e.cfg.API.TokenURL, e.httpClient, e.obs.Logger("auth"))
	return authorizer.Authorize(ctx, auth.CredentialsFromSettings(p), session.StoredRefreshToken(), func(token string) {
		// Complete saves the token again, so a failed early save only
		// matters if the run fails too.
		if err := session.SaveToken(ctx, token); err != nil {
			e.metrics.RecordError("state", "token_save")
			e.logger.Error(ctx, "Failed to persist refresh token", err, nil)
		}
	})
}

func (e *Extractor) client(sandbox bool) *bingads.Client {
	cfg := bingads.ConfigFromEnv(e.cfg, sandbox)
	if e.httpClient != nil {
		cfg.Transport = e.httpClient.Transport
	}
	return bingads.NewClient(cfg, e.obs.Logger("bingads"), e.obs.Metrics("bingads"))
}

func newJob(client *bingads.Client, ac *auth.Context, desc domain.Descriptor) (operation.Job, error) {
	switch desc.Kind {
	case domain.KindBulk:
		job, err := client.NewBulkJob(ac, desc.Bulk)
		if err != nil {
			return nil, err
		}
		return job, nil
	case domain.KindReport:
		job, err := client.NewReportJob(ac, desc.Report)
		if err != nil {
			return nil, err
		}
		return job, nil
	}
	return nil, domain.NewError(domain.Internal, fmt.Sprintf("unknown descriptor kind %q", desc.Kind), nil)
}
