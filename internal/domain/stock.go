package domain

import (
	"time"
)

// LowStockThreshold is the inventory level at or below which a size is
// flagged as running low.
const LowStockThreshold = 5

// Stock movement reasons.
const (
	MovementReasonAdjustment = "adjustment"
	MovementReasonSale       = "sale"
	MovementReasonReturn     = "return"
	MovementReasonRestock    = "restock"
)

// StockMovement is the audit record for one inventory change on a size.
type StockMovement struct {
	ID        string    `json:"id"`
	SizeID    string    `json:"size_id"`
	ProductID string    `json:"product_id"`
	Change    int       `json:"change"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// StockLevel is the inventory view row joining a size with its product.
type StockLevel struct {
	SizeID      string `json:"size_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	Size        string `json:"size"`
	Inventory   int    `json:"inventory"`
	LowStock    bool   `json:"low_stock"`
}

// ValidMovementReasons returns the set of valid stock movement reasons.
func ValidMovementReasons() []string {
	return []string{MovementReasonAdjustment, MovementReasonSale, MovementReasonReturn, MovementReasonRestock}
}

// IsValidMovementReason checks whether the given reason is valid.
func IsValidMovementReason(reason string) bool {
	for _, r := range ValidMovementReasons() {
		if r == reason {
			return true
		}
	}
	return false
}
