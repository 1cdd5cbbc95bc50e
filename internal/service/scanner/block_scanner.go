package scanner

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/transferscan/internal/evm/decoder"
	"github.com/goodnatureofminers/transferscan/internal/evm/model"
	"go.uber.org/zap"
)

// BlockOutcome is the result of scanning one block. A failed block carries Err
// and no matches.
type BlockOutcome struct {
	Number  uint64
	Matches []model.MatchedTransaction
	Err     error
}

// Failed reports whether the block could not be scanned.
func (o BlockOutcome) Failed() bool {
	return o.Err != nil
}

type blockScanner struct {
	source     BlockSource
	decimals   DecimalsResolver
	amountWord decoder.AmountWord
	logger     *zap.Logger
}

func (s *blockScanner) Scan(ctx context.Context, number uint64) BlockOutcome {
	block, err := s.source.BlockWithTransactions(ctx, number)
	if err != nil {
		s.logger.Error("fetch block failed", zap.Uint64("block", number), zap.Error(err))
		return BlockOutcome{Number: number, Err: fmt.Errorf("scan block %d: %w", number, err)}
	}

	var matches []model.MatchedTransaction
	blockTime := block.Time()
	for _, tx := range block.Transactions {
		if len(tx.Input) == 0 || tx.To == nil {
			continue
		}
		// decode unscaled first so that decimals are only resolved for real transfers
		transfer, ok := decoder.Decode(tx.Input, 0, s.amountWord)
		if !ok {
			continue
		}
		decimals := s.decimals.Decimals(ctx, *tx.To)

		matches = append(matches, model.MatchedTransaction{
			TxHash:          tx.Hash,
			From:            tx.From,
			Recipient:       transfer.Recipient,
			ContractAddress: *tx.To,
			Amount:          decoder.ScaleAmount(transfer.RawAmount, decimals),
			RawAmount:       transfer.RawAmount,
			Decimals:        decimals,
			BlockNumber:     number,
			BlockTime:       blockTime,
			Input:           tx.Input,
		})
	}

	return BlockOutcome{Number: number, Matches: matches}
}
