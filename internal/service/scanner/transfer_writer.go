package scanner

import (
	"context"

	"github.com/goodnatureofminers/transferscan/internal/evm/model"
	"github.com/goodnatureofminers/transferscan/pkg/batcher"
	"go.uber.org/zap"
)

type transferWriter struct {
	repo    ClickhouseRepository
	network string
	logger  *zap.Logger
	batcher *batcher.Batcher[model.MatchedTransaction]
}

func newTransferWriter(repo ClickhouseRepository, network string, logger *zap.Logger) *transferWriter {
	w := &transferWriter{
		repo:    repo,
		network: network,
		logger:  logger,
	}
	w.batcher = batcher.New[model.MatchedTransaction](
		logger.Named("transferBatcher"),
		w.flush,
		transferBatcherCapacity,
		transferBatcherFlushInterval,
		transferBatcherRPS,
	)
	return w
}

func (w *transferWriter) Start(ctx context.Context) {
	w.batcher.Start(ctx)
}

func (w *transferWriter) Stop() error {
	err := w.batcher.Stop()
	w.logger.Debug("transfer writer stopped", zap.Int("stored", w.batcher.Flushed()))
	return err
}

func (w *transferWriter) Write(ctx context.Context, transfers []model.MatchedTransaction) error {
	for _, t := range transfers {
		if err := w.batcher.Add(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (w *transferWriter) flush(ctx context.Context, transfers []model.MatchedTransaction) error {
	return w.repo.InsertTransfers(ctx, w.network, transfers)
}
