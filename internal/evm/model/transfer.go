package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// MatchedTransaction is a transaction whose input decoded as an ERC-20 transfer call.
type MatchedTransaction struct {
	TxHash          common.Hash
	From            common.Address
	Recipient       common.Address
	ContractAddress common.Address // the transaction's to address, i.e. the token contract
	Amount          decimal.Decimal
	RawAmount       *big.Int
	Decimals        int32
	BlockNumber     uint64
	BlockTime       time.Time
	Input           []byte
}
