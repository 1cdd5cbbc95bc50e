package clickhouse

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goodnatureofminers/transferscan/internal/evm/model"
)

const insertTransfersQuery = `
INSERT INTO erc20_transfers (
	network,
	block_number,
	block_time,
	tx_hash,
	from_address,
	recipient,
	contract_address,
	raw_amount,
	decimals,
	amount,
	input_data
) VALUES`

// InsertTransfers stores matched transfers in ClickHouse.
func (r *Repository) InsertTransfers(ctx context.Context, network string, transfers []model.MatchedTransaction) (err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("insert_transfers", network, len(transfers), err, start)
	}()

	if len(transfers) == 0 {
		return nil
	}

	batch, err := r.batches.PrepareBatch(ctx, insertTransfersQuery)
	if err != nil {
		return fmt.Errorf("prepare transfers batch: %w", err)
	}

	for _, t := range transfers {
		if err = batch.Append(transferRow(network, t)...); err != nil {
			return fmt.Errorf("append transfer %s: %w", t.TxHash.Hex(), err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert transfers: %w", err)
	}
	return nil
}

func transferRow(network string, t model.MatchedTransaction) []any {
	raw := t.RawAmount
	if raw == nil {
		raw = new(big.Int)
	}
	return []any{
		network,
		t.BlockNumber,
		t.BlockTime.UTC(),
		t.TxHash.Hex(),
		strings.ToLower(t.From.Hex()),
		strings.ToLower(t.Recipient.Hex()),
		strings.ToLower(t.ContractAddress.Hex()),
		raw,
		uint8(t.Decimals),
		t.Amount.String(),
		hexutil.Encode(t.Input),
	}
}
