package domain

import "fmt"

// StockTier is the coarse stock classification shown on badges and filters
type StockTier string

const (
	TierCritical StockTier = "critical"
	TierLow      StockTier = "low"
	TierOk       StockTier = "ok"
)

// Tiers lists every tier in display order
var Tiers = []StockTier{TierCritical, TierLow, TierOk}

// ParseTier maps a filter value onto a tier
func ParseTier(s string) (StockTier, error) {
	switch StockTier(s) {
	case TierCritical, TierLow, TierOk:
		return StockTier(s), nil
	}
	return "", fmt.Errorf("unknown stock tier %q", s)
}

// StockStatus is a tier together with its badge presentation
type StockStatus struct {
	Tier  StockTier `json:"tier"`
	Color string    `json:"color"`
	Icon  string    `json:"icon"`
}

var (
	statusCritical = StockStatus{Tier: TierCritical, Color: "#ef4444", Icon: "🔴"}
	statusLow      = StockStatus{Tier: TierLow, Color: "#f59e0b", Icon: "🟡"}
	statusOk       = StockStatus{Tier: TierOk, Color: "#10b981", Icon: "✅"}
)

// Classify computes the stock tier. It is the only place where stock is compared
// against the threshold; filters, badges and alerts all go through it.
func Classify(stock, threshold int) StockStatus {
	switch {
	case stock <= 0:
		return statusCritical
	case stock < threshold:
		return statusLow
	default:
		return statusOk
	}
}

// IsLow reports whether the product must carry the low-stock flag. It follows
// Classify rather than stock < threshold, so stock 0 with threshold 0 is
// Critical and flagged even though 0 < 0 is false.
func IsLow(stock, threshold int) bool {
	return Classify(stock, threshold).Tier != TierOk
}

// StockChange describes the result of a stock mutation
type StockChange struct {
	Previous  int `json:"previous"`
	Current   int `json:"current"`
	Threshold int `json:"threshold"`
}

// Low reports whether the resulting stock should raise an alert
func (c StockChange) Low() bool {
	return IsLow(c.Current, c.Threshold)
}

// Status returns the tier after the change
func (c StockChange) Status() StockStatus {
	return Classify(c.Current, c.Threshold)
}

// ApplyStockDelta computes the stock after adding delta. A result below zero is a
// validation failure.
func ApplyStockDelta(current, delta, threshold int) (StockChange, error) {
	next := current + delta
	if next < 0 {
		return StockChange{}, NewValidationError(map[string]string{
			"quantity": fmt.Sprintf("resulting stock %d is negative", next),
		})
	}
	return StockChange{Previous: current, Current: next, Threshold: threshold}, nil
}
