// Package model defines domain models for EVM transfer scanning.
package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goodnatureofminers/transferscan/pkg/safe"
)

// BlockTimestamp is a block number paired with its header timestamp in Unix seconds.
type BlockTimestamp struct {
	Number    uint64
	Timestamp uint64
}

// Transaction is the subset of a transaction body the scanner inspects.
type Transaction struct {
	Hash  common.Hash
	From  common.Address
	To    *common.Address // nil for contract creation
	Input []byte
}

// Block is a block fetched together with its ordered transaction bodies.
type Block struct {
	Number       uint64
	Timestamp    uint64
	Transactions []Transaction
}

// Time returns the block timestamp as a UTC time.
func (b Block) Time() time.Time {
	return UnixUTC(b.Timestamp)
}

// UnixUTC converts Unix seconds to UTC. Values beyond int64 map to the zero time.
func UnixUTC(ts uint64) time.Time {
	sec, err := safe.Int64(ts)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// ScanRange is an inclusive block range.
type ScanRange struct {
	Start uint64
	End   uint64
}

// Len returns the number of blocks in the range.
func (r ScanRange) Len() uint64 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}
