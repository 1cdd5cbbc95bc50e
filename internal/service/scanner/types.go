package scanner

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goodnatureofminers/transferscan/internal/evm/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	TimestampSource interface {
		BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	}
	BlockSource interface {
		BlockWithTransactions(ctx context.Context, number uint64) (model.Block, error)
	}
	NodeClient interface {
		BlockNumber(ctx context.Context) (uint64, error)
		BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
		BlockWithTransactions(ctx context.Context, number uint64) (model.Block, error)
	}
	DecimalsResolver interface {
		Decimals(ctx context.Context, token common.Address) int32
	}
	BlockScanner interface {
		Scan(ctx context.Context, number uint64) BlockOutcome
	}
	TransferSink interface {
		Start(ctx context.Context)
		Stop() error
		Write(ctx context.Context, transfers []model.MatchedTransaction) error
	}
	ScannerMetrics interface {
		ObserveBlock(err error, matches int, started time.Time)
		ObserveScan(blocks uint64, started time.Time)
		SetProgress(done, total uint64)
	}
	ClickhouseRepository interface {
		InsertTransfers(ctx context.Context, network string, transfers []model.MatchedTransaction) error
	}
)
