package node

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goodnatureofminers/transferscan/internal/evm/model"
)

// ErrMalformedBlock is returned when a node answers with a block the scanner cannot use.
var ErrMalformedBlock = errors.New("malformed block")

// rpcBlock mirrors eth_getBlockByNumber with full transaction objects. Only the
// fields the scanner needs are decoded so that every transaction type is accepted.
type rpcBlock struct {
	Number       *hexutil.Uint64  `json:"number"`
	Timestamp    *hexutil.Uint64  `json:"timestamp"`
	Transactions []rpcTransaction `json:"transactions"`
}

type rpcTransaction struct {
	Hash  *common.Hash    `json:"hash"`
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
}

func decodeBlock(raw json.RawMessage, number uint64) (model.Block, error) {
	var body rpcBlock
	if err := json.Unmarshal(raw, &body); err != nil {
		return model.Block{}, fmt.Errorf("%w %d: %v", ErrMalformedBlock, number, err)
	}
	if body.Number == nil || body.Timestamp == nil {
		return model.Block{}, fmt.Errorf("%w %d: missing number or timestamp", ErrMalformedBlock, number)
	}
	if uint64(*body.Number) != number {
		return model.Block{}, fmt.Errorf("%w %d: node returned block %d", ErrMalformedBlock, number, uint64(*body.Number))
	}

	txs := make([]model.Transaction, 0, len(body.Transactions))
	for i, tx := range body.Transactions {
		if tx.Hash == nil {
			return model.Block{}, fmt.Errorf("%w %d: transaction %d has no hash", ErrMalformedBlock, number, i)
		}
		txs = append(txs, model.Transaction{
			Hash:  *tx.Hash,
			From:  tx.From,
			To:    tx.To,
			Input: tx.Input,
		})
	}

	return model.Block{
		Number:       number,
		Timestamp:    uint64(*body.Timestamp),
		Transactions: txs,
	}, nil
}
