// Package output renders scan results as JSON documents on disk.
package output

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goodnatureofminers/transferscan/internal/evm/model"
)

const (
	// DatetimeLayout renders block times, e.g. "2025-10-14 09:30:00 UTC".
	DatetimeLayout = "2006-01-02 15:04:05 UTC"

	filePrefix = "txs_"
	fileSuffix = ".json"
)

// Record is one matched transaction as written to disk.
type Record struct {
	TxHash          string `json:"tx_hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	ContractAddress string `json:"contract_address"`
	Amount          string `json:"amount"`
	RawAmount       string `json:"raw_amount"`
	Decimals        int32  `json:"decimals"`
	BlockNumber     uint64 `json:"block_number"`
	Datetime        string `json:"datetime"`
	InputData       string `json:"input_data"`
}

// Document is the self-describing scan output.
type Document struct {
	Window       string   `json:"window"`
	From         string   `json:"from"`
	To           string   `json:"to"`
	StartBlock   uint64   `json:"start_block"`
	EndBlock     uint64   `json:"end_block"`
	Decimals     int32    `json:"decimals"`
	GeneratedAt  string   `json:"generated_at"`
	FailedBlocks []uint64 `json:"failed_blocks"`
	Count        int      `json:"count"`
	Transactions []Record `json:"transactions"`
}

// Scan is the input of NewDocument.
type Scan struct {
	Window       model.TimeWindow
	From         time.Time
	To           time.Time
	Range        model.ScanRange
	Decimals     int32
	Matches      []model.MatchedTransaction
	FailedBlocks []uint64
}

// NewDocument builds a Document. Matches keep their order.
func NewDocument(s Scan, generatedAt time.Time) Document {
	records := make([]Record, 0, len(s.Matches))
	for _, m := range s.Matches {
		records = append(records, NewRecord(m))
	}
	failed := s.FailedBlocks
	if failed == nil {
		failed = []uint64{}
	}
	return Document{
		Window:       s.Window.Label(),
		From:         s.From.UTC().Format(DatetimeLayout),
		To:           s.To.UTC().Format(DatetimeLayout),
		StartBlock:   s.Range.Start,
		EndBlock:     s.Range.End,
		Decimals:     s.Decimals,
		GeneratedAt:  generatedAt.UTC().Format(DatetimeLayout),
		FailedBlocks: failed,
		Count:        len(records),
		Transactions: records,
	}
}

func NewRecord(m model.MatchedTransaction) Record {
	raw := "0"
	if m.RawAmount != nil {
		raw = m.RawAmount.String()
	}
	return Record{
		TxHash:          m.TxHash.Hex(),
		From:            lowerHex(m.From),
		To:              lowerHex(m.Recipient),
		ContractAddress: lowerHex(m.ContractAddress),
		Amount:          m.Amount.String(),
		RawAmount:       raw,
		Decimals:        m.Decimals,
		BlockNumber:     m.BlockNumber,
		Datetime:        m.BlockTime.UTC().Format(DatetimeLayout),
		InputData:       hexutil.Encode(m.Input),
	}
}

// FileName derives the output file name from the window.
func FileName(w model.TimeWindow) string {
	return filePrefix + w.Label() + fileSuffix
}

func lowerHex(a common.Address) string {
	return strings.ToLower(a.Hex())
}
