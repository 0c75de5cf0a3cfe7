// Package output publishes downloaded result files as output tables with
// their manifests.
package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"bingads-extractor/shared/observability"
	"bingads-extractor/shared/storage/types"
	"bingads-extractor/workers/extractor/internal/domain"
)

// AccountResult is the staged result file of one account. Path is empty
// when the remote job produced no file.
type AccountResult struct {
	AccountID string
	Path      string
}

// Destination describes the output table.
type Destination struct {
	// FileName is the table file name, including ".csv".
	FileName string
	// Table is the destination recorded in the manifest; empty uses the
	// file name without extension.
	Table       string
	Incremental bool
}

func (d Destination) stem() string {
	return strings.TrimSuffix(d.FileName, ".csv")
}

// Manifest accompanies every published table.
type Manifest struct {
	Destination string   `json:"destination"`
	Incremental bool     `json:"incremental"`
	PrimaryKey  []string `json:"primary_key"`
	HasHeader   bool     `json:"has_header"`
}

type Publisher struct {
	storage types.ObjectStorage
	logger  observability.Logger
	metrics observability.Metrics
}

func NewPublisher(storage types.ObjectStorage, logger observability.Logger, metrics observability.Metrics) *Publisher {
	return &Publisher{storage: storage, logger: logger, metrics: metrics}
}

// Publish stores every non-empty result with its manifest and returns the
// table keys written. A single account yields {FileName}; several accounts
// yield one folder per account, {accountID}/{stem}_{accountID}.csv.
// Results without data rows are skipped with a warning.
func (p *Publisher) Publish(ctx context.Context, results []AccountResult, primaryKey []string, dest Destination) ([]string, error) {
	sliced := len(results) > 1
	var keys []string

	for _, r := range results {
		empty, err := isEmpty(r.Path)
		if err != nil {
			p.metrics.RecordError("publish", "read")
			return keys, domain.ErrPublishFailed.Wrap(err)
		}
		if empty {
			p.logger.Warn(ctx, "Result has no data rows, no table is written", observability.Fields{
				"account_id": r.AccountID,
				"file":       dest.FileName,
			})
			continue
		}

		key := dest.FileName
		if sliced {
			key = path.Join(r.AccountID, fmt.Sprintf("%s_%s.csv", dest.stem(), r.AccountID))
		}
		if err := p.publishOne(ctx, r.Path, key, primaryKey, dest); err != nil {
			p.metrics.RecordError("publish", "storage")
			return keys, domain.ErrPublishFailed.Wrap(err)
		}
		keys = append(keys, key)
	}

	p.metrics.RecordSuccess("publish")
	p.logger.Info(ctx, "Output tables published", observability.Fields{
		"tables":  len(keys),
		"results": len(results),
	})
	return keys, nil
}

func (p *Publisher) publishOne(ctx context.Context, file, key string, primaryKey []string, dest Destination) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if err := p.storage.Put(ctx, "", key, f, types.ObjectMetadata{
		ContentType:   "text/csv",
		ContentLength: info.Size(),
	}); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	p.metrics.RecordFileSize("table", info.Size())

	table := dest.Table
	if table == "" {
		table = dest.stem()
	}
	if primaryKey == nil {
		primaryKey = []string{}
	}
	manifest, err := json.Marshal(Manifest{
		Destination: table,
		Incremental: dest.Incremental,
		PrimaryKey:  primaryKey,
		HasHeader:   true,
	})
	if err != nil {
		return err
	}
	if err := p.storage.Put(ctx, "", key+".manifest", bytes.NewReader(manifest), types.ObjectMetadata{
		ContentType:   "application/json",
		ContentLength: int64(len(manifest)),
	}); err != nil {
		return fmt.Errorf("store manifest of %s: %w", key, err)
	}
	return nil
}

// isEmpty reports whether file is missing, zero bytes or only a header row.
func isEmpty(file string) (bool, error) {
	if file == "" {
		return true, nil
	}
	f, err := os.Open(file)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	for rows := 0; rows < 2; rows++ {
		if _, err := r.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return true, nil
			}
			return false, fmt.Errorf("read %s: %w", file, err)
		}
	}
	return false, nil
}
