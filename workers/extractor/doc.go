/*
Package extractor downloads Microsoft Advertising (Bing Ads) data for one
configured job and publishes it as output tables.

The extractor worker is responsible for:
  - Exchanging the stored OAuth refresh token for access tokens
  - Submitting bulk entity downloads or performance reports, one per account
  - Polling the remote jobs until they finish and downloading their results
  - Publishing each result as a CSV table with a manifest
  - Persisting the refresh token, a nonce and the last sync time between runs

Architecture

	├── cmd/                    # Process entry point
	├── internal/
	│   ├── domain/            # Descriptors, job statuses, error taxonomy
	│   ├── settings/          # config.json parsing and validation
	│   ├── preset/            # Prebuilt report catalog
	│   ├── metadata/          # Known report columns and bulk entities
	│   ├── request/           # Settings to request descriptor
	│   ├── auth/              # Refresh-token grant and account identity
	│   ├── fault/             # Vendor fault translation
	│   ├── bingads/           # Bulk, reporting and customer API client
	│   ├── operation/         # Remote job state machine and batch loop
	│   ├── state/             # State document backends (file, redis, postgres)
	│   ├── output/            # Table and manifest publishing
	│   └── extractor/         # Run orchestration and sync actions
	└── mocks/                 # testify mocks

Run

A run reads config.json from the data directory, loads the previous state,
builds the request descriptor and authorizes. It then creates one remote
job per account and polls them in a single loop:

	submit -> poll until Completed -> download

With one account the result is written to {table}.csv. With several, each
account gets its own folder holding {table}_{account}.csv. Accounts whose
result has no data rows produce no table.

The last sync time is saved only after every table is published. A rotated
refresh token is saved as soon as it is issued.

Sync Actions

The "action" field of config.json selects what runs:

	run                 full extraction (default)
	testConnection      authorize and fetch the current user
	listAccounts        accounts reachable by the user
	listPresets         prebuilt report configurations
	listReportColumns   columns of parameters.report_type
	listBulkEntities    entities a bulk download accepts

Sync actions print JSON on stdout and log to stderr.

Configuration

Runtime settings come from the environment (see shared/config): data
directory, HTTP limits, retry policy, poll interval, storage adapter,
state backend and Pushgateway URL. The -data-dir flag overrides
KBC_DATADIR.

Error Handling

Configuration, authentication, remote job and vendor fault errors are user
errors and exit with status 1. Everything else exits with status 2.
Transient network failures are retried with backoff before they count as
failures.

Observability

  - Structured JSON logging with run_id, account_id and operation fields
  - Prometheus metrics pushed to a Pushgateway at the end of the run
*/
package extractor
