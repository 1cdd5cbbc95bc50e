// Package decoder decodes ERC-20 transfer call data from raw transaction input.
package decoder

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const (
	selectorLength = 4
	wordLength     = 32

	// TransferCallLength is the size of a canonical transfer(address,uint256) call.
	TransferCallLength = selectorLength + 2*wordLength

	// DefaultDecimals is the token precision assumed when none is known.
	DefaultDecimals int32 = 18
)

// TransferSelector is the 4-byte selector of transfer(address,uint256).
var TransferSelector = []byte{0xa9, 0x05, 0x9c, 0xbb}

// AmountWord selects which 32-byte window the amount is read from.
type AmountWord string

const (
	// FixedAmountWord reads the second ABI argument at bytes [36:68].
	FixedAmountWord AmountWord = "fixed"
	// LastAmountWord reads the last 32 bytes of the input regardless of its length.
	LastAmountWord AmountWord = "last"
)

// ParseAmountWord validates an amount word mode name.
func ParseAmountWord(s string) (AmountWord, error) {
	switch AmountWord(s) {
	case FixedAmountWord, LastAmountWord:
		return AmountWord(s), nil
	default:
		return "", fmt.Errorf("unknown amount word mode %q, use %q or %q", s, FixedAmountWord, LastAmountWord)
	}
}

// Transfer is a decoded transfer call.
type Transfer struct {
	Recipient common.Address
	RawAmount *big.Int
	Amount    decimal.Decimal
}

// DecodeTransfer decodes input as transfer(address,uint256) and scales the amount by
// 10^decimals. It reports false for anything that is not a well-formed transfer call.
func DecodeTransfer(input []byte, decimals int32) (Transfer, bool) {
	return Decode(input, decimals, FixedAmountWord)
}

// DecodeTransferLastWord is DecodeTransfer reading the amount from the trailing word.
func DecodeTransferLastWord(input []byte, decimals int32) (Transfer, bool) {
	return Decode(input, decimals, LastAmountWord)
}

// Decode decodes a transfer call reading the amount from the given word.
func Decode(input []byte, decimals int32, word AmountWord) (Transfer, bool) {
	if len(input) == 0 || decimals < 0 {
		return Transfer{}, false
	}
	if len(input) < selectorLength || !bytes.Equal(input[:selectorLength], TransferSelector) {
		return Transfer{}, false
	}
	if len(input) < TransferCallLength {
		return Transfer{}, false
	}

	recipientWord := input[selectorLength : selectorLength+wordLength]

	var amountWord []byte
	switch word {
	case LastAmountWord:
		amountWord = input[len(input)-wordLength:]
	case FixedAmountWord, "":
		amountWord = input[selectorLength+wordLength : TransferCallLength]
	default:
		return Transfer{}, false
	}

	raw := new(big.Int).SetBytes(amountWord)
	return Transfer{
		Recipient: common.BytesToAddress(recipientWord[wordLength-common.AddressLength:]),
		RawAmount: raw,
		Amount:    ScaleAmount(raw, decimals),
	}, true
}

// ScaleAmount returns raw / 10^decimals without losing precision.
func ScaleAmount(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// EncodeTransfer builds canonical transfer(address,uint256) call data.
func EncodeTransfer(recipient common.Address, amount *big.Int) []byte {
	out := make([]byte, 0, TransferCallLength)
	out = append(out, TransferSelector...)
	out = append(out, common.LeftPadBytes(recipient.Bytes(), wordLength)...)
	out = append(out, common.LeftPadBytes(amount.Bytes(), wordLength)...)
	return out
}
