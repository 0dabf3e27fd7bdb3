package model

import "time"

// TransactionType classifies a quantity-changing ledger event.
type TransactionType string

const (
	// TxAdd records stock entering a batch at creation.
	TxAdd TransactionType = "add"
	// TxConsume records a partial or full withdrawal from a batch.
	TxConsume TransactionType = "consume"
	// TxRemove records a whole batch being discarded without a quantity request.
	TxRemove TransactionType = "remove"
)

// Category groups items for listing purposes.
type Category struct {
	ID   int64  `json:"category_id"`
	Name string `json:"name"`
}

// Item is a named product owned by a user. Items are created on first
// reference and never mutated afterwards; stock levels live in batches.
type Item struct {
	ID         int64   `json:"item_id"`
	UserID     int64   `json:"user_id"`
	CategoryID int64   `json:"category_id"`
	Name       string  `json:"name"`
	Barcode    *string `json:"barcode,omitempty"`
}

// Batch is a single received lot of an item with its own quantity and
// expiry tracking. RemainingQuantity only ever decreases; a batch that
// reaches zero is deleted rather than kept around.
type Batch struct {
	ID                int64      `json:"batch_id"`
	ItemID            int64      `json:"item_id"`
	PurchaseDate      *time.Time `json:"purchase_date,omitempty"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	InitialQuantity   float64    `json:"initial_quantity"`
	RemainingQuantity float64    `json:"remaining_quantity"`
	Unit              string     `json:"unit"`
	Location          *string    `json:"location,omitempty"`
}

// NewBatch carries the fields needed to create a batch.
type NewBatch struct {
	Quantity     float64
	Unit         string
	PurchaseDate *time.Time
	ExpiryDate   *time.Time
	Location     *string
}

// LedgerEntry is one quantity-changing event against a batch. The batch id
// is a plain value rather than a live reference: entries are purged together
// with their batch, so the ledger is scoped to the batch's lifetime.
type LedgerEntry struct {
	ID              int64           `json:"entry_id"`
	BatchID         int64           `json:"batch_id"`
	Type            TransactionType `json:"transaction_type"`
	QuantityChanged float64         `json:"quantity_changed"`
	CreatedAt       time.Time       `json:"created_at"`
}

// InventoryRow is a batch joined with its item and category, as shown in
// pantry listings.
type InventoryRow struct {
	Batch
	ItemName     string `json:"name"`
	CategoryName string `json:"category_name"`
}
