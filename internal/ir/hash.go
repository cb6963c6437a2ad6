package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainStatement = "querydsl/statement/v1"
	DomainResult    = "querydsl/result/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StatementID fingerprints a translated statement and its parameters.
// Identical SQL with identical parameters always yields the same ID, so log
// lines for repeated executions of one query can be correlated.
func StatementID(sql string, params []any) (string, error) {
	args := make([]any, len(params))
	for i, p := range params {
		switch val := p.(type) {
		case float64:
			args[i] = IRDecimal{Decimal: decimal.NewFromFloat(val)}
		case []byte:
			args[i] = string(val)
		default:
			args[i] = val
		}
	}

	canonical, err := MarshalCanonical(map[string]any{
		"sql":    sql,
		"params": args,
	})
	if err != nil {
		return "", fmt.Errorf("StatementID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainStatement, canonical), nil
}

// ResultHash fingerprints a materialized result set (rows of values).
// Two executions over the same snapshot produce the same hash.
func ResultHash(rows [][]IRValue) (string, error) {
	elems := make([]any, len(rows))
	for i, row := range rows {
		elems[i] = row
	}
	canonical, err := MarshalCanonical(elems)
	if err != nil {
		return "", fmt.Errorf("ResultHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}

// MustStatementID is like StatementID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustStatementID(sql string, params []any) string {
	id, err := StatementID(sql, params)
	if err != nil {
		panic(err)
	}
	return id
}
