// Package scanner finds ERC-20 transfer calls in the blocks of a time window.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/goodnatureofminers/transferscan/internal/evm/decoder"
	"github.com/goodnatureofminers/transferscan/internal/evm/model"
	"go.uber.org/zap"
)

var (
	// ErrEmptyRange is returned when the window starts after the chain head.
	ErrEmptyRange = errors.New("no blocks in window")
	// ErrStoreTransfers is returned by Scan alongside a complete result when
	// matches could not be stored.
	ErrStoreTransfers = errors.New("store transfers")
)

// Config tunes a Service.
type Config struct {
	Network      string
	Workers      int
	AmountWord   decoder.AmountWord
	ProgressStep int
}

// Result is the outcome of a window scan.
type Result struct {
	Window       model.TimeWindow
	From         time.Time
	To           time.Time
	Head         uint64
	Range        model.ScanRange
	Matches      []model.MatchedTransaction
	FailedBlocks []uint64
}

type Service struct {
	node         NodeClient
	locator      *Locator
	orchestrator *orchestrator
	sink         TransferSink
	now          func() time.Time
	logger       *zap.Logger
}

// NewService wires a scanner. repo may be nil, in which case matches are not stored.
func NewService(
	node NodeClient,
	decimals DecimalsResolver,
	repo ClickhouseRepository,
	metrics ScannerMetrics,
	cfg Config,
	logger *zap.Logger,
) (*Service, error) {
	if node == nil {
		return nil, errors.New("node client is required")
	}
	if decimals == nil {
		return nil, errors.New("decimals resolver is required")
	}
	if metrics == nil {
		return nil, errors.New("scanner metrics is required")
	}
	if cfg.AmountWord == "" {
		cfg.AmountWord = decoder.FixedAmountWord
	}
	if _, err := decoder.ParseAmountWord(string(cfg.AmountWord)); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkerCount
	}
	if cfg.ProgressStep <= 0 {
		cfg.ProgressStep = defaultProgressStep
	}
	logger = logger.With(zap.String("network", cfg.Network))

	var sink TransferSink
	if repo != nil {
		sink = newTransferWriter(repo, cfg.Network, logger.Named("transferWriter"))
	}

	return &Service{
		node:    node,
		locator: NewLocator(node),
		orchestrator: &orchestrator{
			workerCount:  cfg.Workers,
			progressStep: uint64(cfg.ProgressStep),
			scanner: &blockScanner{
				source:     node,
				decimals:   decimals,
				amountWord: cfg.AmountWord,
				logger:     logger.Named("blockScanner"),
			},
			sink:    sink,
			metrics: metrics,
			logger:  logger.Named("orchestrator"),
		},
		sink:   sink,
		now:    time.Now,
		logger: logger,
	}, nil
}

// ResolveRange maps a window to the inclusive block range covering it. The end
// block is clamped to the current head.
func (s *Service) ResolveRange(ctx context.Context, window model.TimeWindow) (Result, error) {
	from, to := window.Bounds(s.now())
	res := Result{Window: window, From: from, To: to}

	head, err := s.node.BlockNumber(ctx)
	if err != nil {
		return res, fmt.Errorf("get chain head: %w", err)
	}
	res.Head = head

	start, err := s.locator.Locate(ctx, unixSeconds(from), head)
	if err != nil {
		return res, fmt.Errorf("locate start block: %w", err)
	}
	if start > head {
		return res, fmt.Errorf("%w: window starts at %s, after head %d", ErrEmptyRange, from.Format(time.RFC3339), head)
	}
	end, err := s.locator.Locate(ctx, unixSeconds(to), head)
	if err != nil {
		return res, fmt.Errorf("locate end block: %w", err)
	}
	if end > head {
		end = head
	}

	res.Range = model.ScanRange{Start: start, End: end}
	return res, nil
}

// Scan resolves the window and scans every block in it. Failed blocks are listed
// in the result. The returned error is non-nil only when the range cannot be
// resolved or matches could not be stored; in the latter case the result is
// still complete.
func (s *Service) Scan(ctx context.Context, window model.TimeWindow) (Result, error) {
	res, err := s.ResolveRange(ctx, window)
	if err != nil {
		return res, err
	}

	s.logger.Info("scanning blocks",
		zap.Uint64("start_block", res.Range.Start),
		zap.Uint64("end_block", res.Range.End),
		zap.Uint64("blocks", res.Range.Len()),
		zap.Time("from", res.From),
		zap.Time("to", res.To),
	)

	if s.sink != nil {
		s.sink.Start(ctx)
	}
	report := s.orchestrator.Scan(ctx, res.Range)

	var sinkErr error
	if s.sink != nil {
		if err := s.sink.Stop(); err != nil {
			sinkErr = fmt.Errorf("%w: %w", ErrStoreTransfers, err)
		}
	}

	// blocks complete in any order; a stable sort keeps transaction order within a block
	slices.SortStableFunc(report.Matches, func(a, b model.MatchedTransaction) int {
		switch {
		case a.BlockNumber < b.BlockNumber:
			return -1
		case a.BlockNumber > b.BlockNumber:
			return 1
		default:
			return 0
		}
	})
	res.Matches = report.Matches
	res.FailedBlocks = report.FailedBlocks

	for _, m := range res.Matches {
		s.logger.Debug("transfer", zap.String("tx_hash", m.TxHash.Hex()), zap.Uint64("block", m.BlockNumber))
	}
	s.logger.Info("scan finished",
		zap.Int("transfers", len(res.Matches)),
		zap.Uint64("scanned", report.Scanned),
		zap.Int("failed_blocks", len(res.FailedBlocks)),
	)
	return res, sinkErr
}

func unixSeconds(t time.Time) uint64 {
	sec := t.Unix()
	if sec < 0 {
		return 0
	}
	return uint64(sec)
}
