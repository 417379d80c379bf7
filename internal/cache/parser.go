// internal/cache/parser.go
package cache

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/tokenswap-client/internal/layout"
)

// ParserID names a decode strategy.
type ParserID string

const (
	// ParserAuto infers the layout from the payload length.
	ParserAuto         ParserID = ""
	ParserTokenAccount ParserID = "token_account"
	ParserMint         ParserID = "mint"
	ParserPool         ParserID = "pool"
	// ParserRaw keeps the bytes without decoding.
	ParserRaw ParserID = "raw"
)

// Record is an immutable snapshot of one remote account. A newer snapshot
// replaces it under the same key; fields are never merged.
type Record struct {
	Address  solana.PublicKey
	Kind     layout.Kind
	Program  solana.PublicKey // owning program
	Lamports uint64
	Data     []byte

	Account *layout.TokenAccount
	Mint    *layout.Mint
	Pool    *layout.PoolState

	// Synthetic marks a record built locally rather than decoded from an
	// on-chain token account (the wrapped view of a native balance).
	Synthetic bool
}

// Key returns the cache key of the record.
func (r *Record) Key() string {
	return r.Address.String()
}

// Parser fills the decoded part of rec from rec.Data.
type Parser func(rec *Record) error

func parseTokenAccount(rec *Record) error {
	acc, err := layout.DecodeTokenAccount(rec.Data)
	if err != nil {
		return err
	}
	rec.Kind = layout.KindTokenAccount
	rec.Account = acc
	return nil
}

func parseMint(rec *Record) error {
	m, err := layout.DecodeMint(rec.Data)
	if err != nil {
		return err
	}
	rec.Kind = layout.KindMint
	rec.Mint = m
	return nil
}

func parsePool(rec *Record) error {
	p, err := layout.DecodePoolState(rec.Data)
	if err != nil {
		return err
	}
	rec.Kind = layout.KindPool
	rec.Pool = p
	return nil
}

func parseRaw(rec *Record) error {
	rec.Kind = layout.KindUnknown
	return nil
}

// parseAuto is the tagged-union decode: match the length, then bind.
func parseAuto(rec *Record) error {
	switch layout.Classify(len(rec.Data)) {
	case layout.KindTokenAccount:
		return parseTokenAccount(rec)
	case layout.KindMint:
		return parseMint(rec)
	case layout.KindPool:
		return parsePool(rec)
	default:
		return &layout.DecodeError{Kind: layout.KindUnknown, Length: len(rec.Data)}
	}
}

func defaultParsers() map[ParserID]Parser {
	return map[ParserID]Parser{
		ParserAuto:         parseAuto,
		ParserTokenAccount: parseTokenAccount,
		ParserMint:         parseMint,
		ParserPool:         parsePool,
		ParserRaw:          parseRaw,
	}
}

func unknownParser(id ParserID) error {
	return fmt.Errorf("unknown parser %q", id)
}
