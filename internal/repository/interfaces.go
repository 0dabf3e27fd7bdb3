package repository

import (
	"context"
	"errors"
	"time"

	"pantry-rest-api/internal/model"
)

// ErrBatchNotFound is returned when a batch vanished between listing and
// acting on it (raced with a concurrent depletion).
var ErrBatchNotFound = errors.New("batch not found")

// PantryRepository defines data access for items, batches, the ledger,
// alerts and the recipe report. Every multi-row write (batch create plus
// its add entry, decrement plus its consume entry, batch delete plus its
// ledger purge) is one storage transaction.
type PantryRepository interface {
	// GetItemByName finds an item by (name, user). Returns nil without
	// error when absent.
	GetItemByName(ctx context.Context, userID int64, name string) (*model.Item, error)

	// CreateItem creates an item owned by the user.
	CreateItem(ctx context.Context, userID, categoryID int64, name string) (int64, error)

	// GetItem finds an item by id. Returns nil without error when absent.
	GetItem(ctx context.Context, itemID int64) (*model.Item, error)

	// ListItems returns all items owned by the user.
	ListItems(ctx context.Context, userID int64) ([]model.Item, error)

	// ListCategories returns all categories.
	ListCategories(ctx context.Context) ([]model.Category, error)

	// ListBatches returns the item's batches in consumption order:
	// expiry ascending with NULL last, then purchase ascending with NULL
	// last. This ordering is the FIFO-by-expiry policy.
	ListBatches(ctx context.Context, itemID int64) ([]model.Batch, error)

	// GetBatch re-reads a single batch. Returns nil without error when the
	// batch no longer exists.
	GetBatch(ctx context.Context, batchID int64) (*model.Batch, error)

	// CreateBatch inserts a batch with remaining = initial = quantity and
	// appends the matching add ledger entry in the same transaction.
	CreateBatch(ctx context.Context, itemID int64, nb model.NewBatch) (int64, error)

	// ConsumeFromBatch atomically re-reads the batch under a write lock,
	// decrements its remaining quantity and appends a consume ledger entry.
	// The decrement is capped at the quantity the locked read observed, so
	// remaining never goes negative even when qty is stale. Returns the
	// quantity actually consumed and the new remaining quantity, or
	// ErrBatchNotFound if the batch is gone.
	ConsumeFromBatch(ctx context.Context, batchID int64, qty float64) (consumed, newRemaining float64, err error)

	// RemoveBatch appends a remove ledger entry for the quantity the batch
	// holds inside the transaction, then deletes the batch and its ledger
	// history. A no-op, not an error, if the batch is already gone.
	RemoveBatch(ctx context.Context, batchID int64) error

	// DeleteBatchAndLedger deletes a batch and its ledger rows atomically.
	// A no-op, not an error, if the batch is already gone.
	DeleteBatchAndLedger(ctx context.Context, batchID int64) error

	// TotalRemaining sums remaining quantity across the item's batches.
	TotalRemaining(ctx context.Context, itemID int64) (float64, error)

	// LedgerEntries returns the surviving ledger rows for a batch, oldest
	// first. Read-only; used by reporting and audit.
	LedgerEntries(ctx context.Context, batchID int64) ([]model.LedgerEntry, error)

	// ListInventory returns the user's batches joined with item and
	// category names.
	ListInventory(ctx context.Context, userID int64) ([]model.InventoryRow, error)

	// UpsertRestockAlert creates or replaces the alert for an item,
	// re-enabling it. At most one alert row exists per item.
	UpsertRestockAlert(ctx context.Context, itemID int64, minQuantity float64) error

	// ListLowStock evaluates enabled alerts: items whose aggregate
	// remaining quantity is at or below their threshold (zero included).
	ListLowStock(ctx context.Context, userID int64) ([]model.LowStockAlert, error)

	// ListExpiring returns batches with stock left and a non-null expiry
	// date on or before the cutoff, soonest first.
	ListExpiring(ctx context.Context, userID int64, until time.Time) ([]model.ExpiryAlert, error)

	// AvailableRecipes reports recipes whose every ingredient is covered by
	// the user's current stock. Read-only aggregation.
	AvailableRecipes(ctx context.Context, userID int64) ([]model.Recipe, error)

	// CountLowStock counts triggered restock alerts across all users, for
	// operational visibility.
	CountLowStock(ctx context.Context) (int64, error)

	// CountExpiringBatches counts batches with stock left expiring on or
	// before the cutoff, across all users.
	CountExpiringBatches(ctx context.Context, until time.Time) (int64, error)

	// Close closes the underlying connection.
	Close() error
}

// UserRepository defines account data access for the credential check.
type UserRepository interface {
	// CreateUser stores a user with an already-hashed password.
	CreateUser(ctx context.Context, name, email, passwordHash string) (int64, error)

	// GetUserByEmail finds a user by email. Returns nil without error when
	// absent.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// GetUser finds a user by id. Returns nil without error when absent.
	GetUser(ctx context.Context, userID int64) (*model.User, error)
}
