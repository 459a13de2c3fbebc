package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Skeleton is the structure-only canonical form of a fragment's markup.
// It is always derived from a Fragment and never persisted on its own.
type Skeleton string

// Fingerprint is the lowercase hex encoding of a 256-bit BLAKE2b digest of a Skeleton.
type Fingerprint string

// FingerprintOf hashes a skeleton. Identical skeletons always produce identical
// fingerprints.
func FingerprintOf(skeleton Skeleton) Fingerprint {
	h, _ := blake2b.New(32, nil) // 32 bytes = 256 bits
	h.Write([]byte(skeleton))
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// Fragment is one unit of extracted markup to be transformed.
// Name is supplied by the extractor and is unique within a document.
type Fragment struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Selector string `json:"selector,omitempty"`
	HTML     string `json:"html"`
}

// Document groups the fragments extracted from one source page together with
// the file that receives its transformed output.
type Document struct {
	Name       string
	Fragments  []Fragment
	OutputPath string
}

// Shortcode is the structured result produced by the transformation service.
type Shortcode struct {
	Name        string `json:"name"`
	Param       []any  `json:"param"`
	Template    string `json:"template"`
	QueryScript string `json:"queryScript"`
}

// CacheRecord is the durable unit of the fingerprint store.
// Records are immutable once written.
type CacheRecord struct {
	Name        string
	Fingerprint Fingerprint
	Skeleton    Skeleton
	Result      Shortcode
	InsertedAt  time.Time
}

// Usage holds token counters reported for one external call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add returns the element-wise sum of u and other.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
	}
}

// IsZero reports whether no tokens were counted.
func (u Usage) IsZero() bool {
	return u.InputTokens == 0 && u.OutputTokens == 0 && u.TotalTokens == 0
}

// Pricing converts token counts into cost.
// Prices are per one million tokens; CurrencyFactor converts the result
// into the reporting currency.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
	CurrencyFactor   float64
}

// DefaultPricing returns the pricing used for end-of-run reports.
func DefaultPricing() Pricing {
	return Pricing{
		InputPerMillion:  0.15,
		OutputPerMillion: 1.50,
		CurrencyFactor:   90.56,
	}
}

// UsageSummary aggregates all ledger entries for reporting.
type UsageSummary struct {
	Entries    map[string]Usage
	Totals     Usage
	InputCost  float64
	OutputCost float64
	TotalCost  float64
}

// Summarize totals the given entries and prices them.
func Summarize(entries map[string]Usage, pricing Pricing) UsageSummary {
	summary := UsageSummary{Entries: make(map[string]Usage, len(entries))}
	for key, u := range entries {
		summary.Entries[key] = u
		summary.Totals = summary.Totals.Add(u)
	}
	summary.InputCost = float64(summary.Totals.InputTokens) / 1_000_000 * pricing.InputPerMillion * pricing.CurrencyFactor
	summary.OutputCost = float64(summary.Totals.OutputTokens) / 1_000_000 * pricing.OutputPerMillion * pricing.CurrencyFactor
	summary.TotalCost = summary.InputCost + summary.OutputCost
	return summary
}
