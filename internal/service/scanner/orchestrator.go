package scanner

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/goodnatureofminers/transferscan/internal/evm/model"
	"github.com/goodnatureofminers/transferscan/pkg/workerpool"
	"go.uber.org/zap"
)

// ScanReport aggregates every block outcome of a range scan.
type ScanReport struct {
	Range        model.ScanRange
	Matches      []model.MatchedTransaction
	Scanned      uint64
	FailedBlocks []uint64
}

type orchestrator struct {
	workerCount  int
	progressStep uint64
	scanner      BlockScanner
	sink         TransferSink
	metrics      ScannerMetrics
	logger       *zap.Logger
}

// Scan runs the block scanner over every block of r and waits for all of them.
// Per-block failures are recorded in the report and never stop the scan.
func (o *orchestrator) Scan(ctx context.Context, r model.ScanRange) ScanReport {
	started := time.Now()
	blocks := workerpool.Range(r.Start, r.End)
	total := uint64(len(blocks))

	report := ScanReport{Range: r}
	progress := newProgress(total, o.progressStep)

	var mu sync.Mutex
	workerpool.Run(ctx, o.workerCount, blocks, func(ctx context.Context, number uint64) {
		blockStarted := time.Now()
		outcome := o.scanner.Scan(ctx, number)
		o.metrics.ObserveBlock(outcome.Err, len(outcome.Matches), blockStarted)

		if o.sink != nil && len(outcome.Matches) > 0 {
			if err := o.sink.Write(ctx, outcome.Matches); err != nil {
				o.logger.Warn("queue transfers for storage failed", zap.Uint64("block", number), zap.Error(err))
			}
		}

		mu.Lock()
		defer mu.Unlock()
		report.Matches = append(report.Matches, outcome.Matches...)
		if outcome.Failed() {
			report.FailedBlocks = append(report.FailedBlocks, number)
		}
		report.Scanned++

		o.metrics.SetProgress(report.Scanned, total)
		if pct, ok := progress.advance(report.Scanned); ok {
			o.logger.Info("scan progress",
				zap.Uint64("percent", pct),
				zap.Uint64("scanned", report.Scanned),
				zap.Uint64("total", total),
				zap.Int("matches", len(report.Matches)),
			)
		}
	})

	slices.Sort(report.FailedBlocks)
	o.metrics.ObserveScan(total, started)
	return report
}

// progress emits a report each time the completed share crosses another step.
type progress struct {
	total uint64
	step  uint64
	next  uint64
}

func newProgress(total, step uint64) *progress {
	if step == 0 || step > 100 {
		step = defaultProgressStep
	}
	return &progress{total: total, step: step, next: step}
}

func (p *progress) advance(done uint64) (uint64, bool) {
	if p.total == 0 {
		return 0, false
	}
	pct := done * 100 / p.total
	if pct < p.next {
		return 0, false
	}
	for p.next <= pct {
		p.next += p.step
	}
	return pct, true
}
