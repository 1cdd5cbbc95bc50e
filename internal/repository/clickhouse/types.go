package clickhouse

import (
	"context"
	"time"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Metrics interface {
		Observe(operation, network string, rows int, err error, started time.Time)
	}
	// Batch is the part of a ClickHouse batch the repository uses.
	Batch interface {
		Append(v ...any) error
		Send() error
	}
	BatchPreparer interface {
		PrepareBatch(ctx context.Context, query string) (Batch, error)
	}
)
