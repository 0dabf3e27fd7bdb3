package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"pantry-rest-api/internal/model"
	"pantry-rest-api/internal/repository"
	"pantry-rest-api/pkg/apierror"
)

// StockService owns the inventory ledger and the consumption engine. It is
// the only writer of batch quantities; every multi-row effect goes through
// one repository transaction.
type StockService struct {
	repo repository.PantryRepository

	// legacyShortfall keeps the historical allocation order: batches are
	// consumed one by one and the shortfall is reported only after partial
	// decrements have committed. The default is a feasibility pre-check
	// that refuses the whole request before touching any batch.
	legacyShortfall bool
}

// NewStockService creates a stock service with the feasibility pre-check:
// a request that exceeds total stock consumes nothing.
func NewStockService(repo repository.PantryRepository) *StockService {
	if repo == nil {
		return nil
	}
	return &StockService{repo: repo}
}

// NewLegacyStockService creates a stock service that allocates batch by
// batch and reports the shortfall only after partial decrements committed.
func NewLegacyStockService(repo repository.PantryRepository) *StockService {
	s := NewStockService(repo)
	if s != nil {
		s.legacyShortfall = true
	}
	return s
}

// AddStockInput carries the fields for one stock ingestion.
type AddStockInput struct {
	ItemName     string
	CategoryID   int64
	Quantity     float64
	Unit         string
	PurchaseDate *time.Time
	ExpiryDate   *time.Time
	Location     *string
}

// AddStock looks up or creates the item, creates a batch with
// remaining = initial = quantity and writes the initial add ledger entry.
// Returns the new batch id.
func (s *StockService) AddStock(ctx context.Context, userID int64, in AddStockInput) (int64, error) {
	var details []apierror.FieldError
	if in.ItemName == "" {
		details = append(details, apierror.FieldError{Field: "item_name", Message: "required"})
	}
	if in.CategoryID <= 0 {
		details = append(details, apierror.FieldError{Field: "category_id", Message: "required"})
	}
	if in.Unit == "" {
		details = append(details, apierror.FieldError{Field: "unit", Message: "required"})
	}
	if !(in.Quantity > 0) || math.IsInf(in.Quantity, 0) {
		details = append(details, apierror.FieldError{Field: "quantity", Message: "must be a positive number"})
	}
	if in.PurchaseDate != nil && in.ExpiryDate != nil && in.ExpiryDate.Before(*in.PurchaseDate) {
		details = append(details, apierror.FieldError{Field: "expiry_date", Message: "must not precede purchase_date"})
	}
	if len(details) > 0 {
		return 0, apierror.Validation("invalid stock entry", details...)
	}

	item, err := s.repo.GetItemByName(ctx, userID, in.ItemName)
	if err != nil {
		return 0, err
	}

	var itemID int64
	if item == nil {
		itemID, err = s.repo.CreateItem(ctx, userID, in.CategoryID, in.ItemName)
		if err != nil {
			return 0, err
		}
	} else {
		itemID = item.ID
	}

	batchID, err := s.repo.CreateBatch(ctx, itemID, model.NewBatch{
		Quantity:     in.Quantity,
		Unit:         in.Unit,
		PurchaseDate: in.PurchaseDate,
		ExpiryDate:   in.ExpiryDate,
		Location:     in.Location,
	})
	if err != nil {
		return 0, err
	}

	log.Printf("[StockService] Added batch %d: item=%q qty=%g %s user=%d",
		batchID, in.ItemName, in.Quantity, in.Unit, userID)
	return batchID, nil
}

// Consume withdraws stock for an item. A nil quantity removes every batch
// of the item; otherwise the requested quantity is allocated across batches
// in FIFO-by-expiry order, deleting each batch it fully depletes.
func (s *StockService) Consume(ctx context.Context, userID int64, itemName string, quantity *float64) error {
	if itemName == "" {
		return apierror.Validation("item_name is required")
	}
	if quantity != nil && (!(*quantity > 0) || math.IsInf(*quantity, 0)) {
		return apierror.Validation("quantity must be a positive number")
	}

	item, err := s.repo.GetItemByName(ctx, userID, itemName)
	if err != nil {
		return err
	}
	if item == nil {
		return apierror.NotFound(fmt.Sprintf("item %q not found", itemName))
	}

	batches, err := s.repo.ListBatches(ctx, item.ID)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		return apierror.NotFound(fmt.Sprintf("no stock found for %q", itemName))
	}

	if quantity == nil {
		return s.removeAll(ctx, itemName, batches)
	}
	return s.consume(ctx, item, itemName, batches, *quantity)
}

// removeAll discards every batch. The remove ledger entry is written from
// the quantity the batch holds inside the delete transaction, not from this
// listing, so a consume that lands in between is not double-counted.
func (s *StockService) removeAll(ctx context.Context, itemName string, batches []model.Batch) error {
	for _, b := range batches {
		if err := s.repo.RemoveBatch(ctx, b.ID); err != nil {
			return err
		}
	}
	log.Printf("[StockService] Removed all %d batches of %q", len(batches), itemName)
	return nil
}

// consume allocates the requested quantity across batches in FIFO order.
func (s *StockService) consume(ctx context.Context, item *model.Item, itemName string, batches []model.Batch, requested float64) error {
	if !s.legacyShortfall {
		total, err := s.repo.TotalRemaining(ctx, item.ID)
		if err != nil {
			return err
		}
		if total < requested {
			return s.shortfallError(itemName, requested-total, batches)
		}
	}

	remainingToRemove := requested
	for _, b := range batches {
		if remainingToRemove <= 0 {
			break
		}

		// Re-read: the batch may have shrunk or vanished since listing.
		current, err := s.repo.GetBatch(ctx, b.ID)
		if err != nil {
			return err
		}
		if current == nil {
			continue
		}

		toRemove := math.Min(current.RemainingQuantity, remainingToRemove)
		if toRemove <= 0 {
			continue
		}

		// The repository caps the decrement at what the batch held when it
		// locked the row, so only the amount it reports is deducted here.
		consumed, newRemaining, err := s.repo.ConsumeFromBatch(ctx, b.ID, toRemove)
		if err != nil {
			if errors.Is(err, repository.ErrBatchNotFound) {
				continue
			}
			return err
		}
		remainingToRemove -= consumed

		if newRemaining <= 0 {
			if err := s.repo.DeleteBatchAndLedger(ctx, b.ID); err != nil {
				return err
			}
		}
	}

	if remainingToRemove > 0 {
		// Strict mode can still land here when a concurrent consumer drained
		// a batch between the pre-check and the allocation loop.
		return s.shortfallError(itemName, remainingToRemove, batches)
	}

	log.Printf("[StockService] Consumed %g of %q", requested, itemName)
	return nil
}

func (s *StockService) shortfallError(itemName string, shortfall float64, batches []model.Batch) error {
	unit := "units"
	if len(batches) > 0 && batches[0].Unit != "" {
		unit = batches[0].Unit
	}
	return apierror.InsufficientStock(
		fmt.Sprintf("not enough stock for %q: missing %g %s", itemName, shortfall, unit),
		shortfall)
}

// ListInventory returns the user's batches joined with item and category names.
func (s *StockService) ListInventory(ctx context.Context, userID int64) ([]model.InventoryRow, error) {
	return s.repo.ListInventory(ctx, userID)
}

// ListItems returns the user's items.
func (s *StockService) ListItems(ctx context.Context, userID int64) ([]model.Item, error) {
	return s.repo.ListItems(ctx, userID)
}

// ListCategories returns all categories.
func (s *StockService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.repo.ListCategories(ctx)
}
