package model

import "time"

// RestockAlert is the configured minimum-quantity threshold for an item.
// At most one alert exists per item; re-submitting replaces the threshold
// and re-enables the alert.
type RestockAlert struct {
	ID          int64   `json:"alert_id"`
	ItemID      int64   `json:"item_id"`
	MinQuantity float64 `json:"min_quantity"`
	Enabled     bool    `json:"alert_enabled"`
}

// LowStockAlert is an evaluated restock alert: an enabled alert whose item's
// aggregate remaining quantity has fallen to or below the threshold.
type LowStockAlert struct {
	AlertID        int64   `json:"alert_id"`
	ItemName       string  `json:"item_name"`
	MinQuantity    float64 `json:"min_quantity"`
	TotalRemaining float64 `json:"total_remaining_quantity"`
	Unit           string  `json:"unit,omitempty"`
}

// ExpiryAlert is a batch inside the expiry horizon that still holds stock.
type ExpiryAlert struct {
	ItemName          string    `json:"item_name"`
	ExpiryDate        time.Time `json:"expiry_date"`
	RemainingQuantity float64   `json:"remaining_quantity"`
	Unit              string    `json:"unit"`
}
