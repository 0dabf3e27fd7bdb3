package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pantry-rest-api/internal/repository"
	"pantry-rest-api/pkg/apierror"
)

const testUserID = 1

func newTestRepo(t *testing.T) *repository.SQLitePantryRepository {
	t.Helper()

	repo, err := repository.NewSQLitePantryRepository(filepath.Join(t.TempDir(), "pantry.db"))
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func addBatch(t *testing.T, svc *StockService, name string, qty float64, expiry *time.Time) {
	t.Helper()

	_, err := svc.AddStock(context.Background(), testUserID, AddStockInput{
		ItemName:   name,
		CategoryID: 1,
		Quantity:   qty,
		Unit:       "pcs",
		ExpiryDate: expiry,
	})
	if err != nil {
		t.Fatalf("AddStock(%s, %g): %v", name, qty, err)
	}
}

func expiryIn(days int) *time.Time {
	d := time.Now().AddDate(0, 0, days)
	return &d
}

func floatPtr(f float64) *float64 {
	return &f
}

func asAPIError(t *testing.T, err error) *apierror.Error {
	t.Helper()

	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *apierror.Error, got %T: %v", err, err)
	}
	return apiErr
}

func TestAddStock_CreatesItemOnce(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewStockService(repo)
	ctx := context.Background()

	addBatch(t, svc, "milk", 2, nil)
	addBatch(t, svc, "milk", 3, nil)

	items, err := repo.ListItems(ctx, testUserID)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	total, err := repo.TotalRemaining(ctx, items[0].ID)
	if err != nil {
		t.Fatalf("TotalRemaining: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %g", total)
	}
}

func TestAddStock_Validation(t *testing.T) {
	svc := NewStockService(newTestRepo(t))
	ctx := context.Background()

	cases := []struct {
		name string
		in   AddStockInput
	}{
		{"missing name", AddStockInput{CategoryID: 1, Quantity: 1, Unit: "pcs"}},
		{"missing unit", AddStockInput{ItemName: "milk", CategoryID: 1, Quantity: 1}},
		{"zero quantity", AddStockInput{ItemName: "milk", CategoryID: 1, Quantity: 0, Unit: "pcs"}},
		{"negative quantity", AddStockInput{ItemName: "milk", CategoryID: 1, Quantity: -2, Unit: "pcs"}},
		{"expiry before purchase", AddStockInput{
			ItemName: "milk", CategoryID: 1, Quantity: 1, Unit: "pcs",
			PurchaseDate: expiryIn(2), ExpiryDate: expiryIn(1),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddStock(ctx, testUserID, tc.in)
			apiErr := asAPIError(t, err)
			if apiErr.Code != apierror.CodeValidation {
				t.Errorf("expected validation error, got %s", apiErr.Code)
			}
		})
	}
}

func TestConsume_FIFOByExpiry(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewStockService(repo)
	ctx := context.Background()

	// B1 expires first, B2 later, B3 never.
	addBatch(t, svc, "milk", 5, expiryIn(1))
	addBatch(t, svc, "milk", 5, expiryIn(3))
	addBatch(t, svc, "milk", 5, nil)

	if err := svc.Consume(ctx, testUserID, "milk", floatPtr(7)); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	item, err := repo.GetItemByName(ctx, testUserID, "milk")
	if err != nil {
		t.Fatalf("GetItemByName: %v", err)
	}
	batches, err := repo.ListBatches(ctx, item.ID)
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}

	// B1 fully depleted and deleted, B2 at 3, B3 untouched.
	if len(batches) != 2 {
		t.Fatalf("expected 2 surviving batches, got %d", len(batches))
	}
	if batches[0].RemainingQuantity != 3 {
		t.Errorf("expected first surviving batch at 3, got %g", batches[0].RemainingQuantity)
	}
	if batches[1].RemainingQuantity != 5 || batches[1].ExpiryDate != nil {
		t.Errorf("expected undated batch untouched at 5, got %g", batches[1].RemainingQuantity)
	}
}

func TestConsume_ExactDepletionDeletesBatchAndLedger(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewStockService(repo)
	ctx := context.Background()

	addBatch(t, svc, "eggs", 6, nil)

	item, _ := repo.GetItemByName(ctx, testUserID, "eggs")
	batches, _ := repo.ListBatches(ctx, item.ID)
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	batchID := batches[0].ID

	if err := svc.Consume(ctx, testUserID, "eggs", floatPtr(6)); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	batches, _ = repo.ListBatches(ctx, item.ID)
	if len(batches) != 0 {
		t.Fatalf("expected batch deleted, got %d batches", len(batches))
	}
	entries, _ := repo.LedgerEntries(ctx, batchID)
	if len(entries) != 0 {
		t.Errorf("expected ledger purged with the batch, got %d entries", len(entries))
	}
}

func TestConsume_InsufficientStrict(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewStockService(repo)
	ctx := context.Background()

	addBatch(t, svc, "flour", 4, expiryIn(1))
	addBatch(t, svc, "flour", 2, expiryIn(2))

	err := svc.Consume(ctx, testUserID, "flour", floatPtr(10))
	apiErr := asAPIError(t, err)
	if apiErr.Code != apierror.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %s", apiErr.Code)
	}
	if apiErr.Shortfall == nil || *apiErr.Shortfall != 4 {
		t.Errorf("expected shortfall 4, got %v", apiErr.Shortfall)
	}

	// Strict mode touches nothing on refusal.
	item, _ := repo.GetItemByName(ctx, testUserID, "flour")
	total, _ := repo.TotalRemaining(ctx, item.ID)
	if total != 6 {
		t.Errorf("expected stock unchanged at 6, got %g", total)
	}
}

func TestConsume_InsufficientLegacy(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewLegacyStockService(repo)
	ctx := context.Background()

	addBatch(t, svc, "flour", 4, expiryIn(1))
	addBatch(t, svc, "flour", 2, expiryIn(2))

	err := svc.Consume(ctx, testUserID, "flour", floatPtr(10))
	apiErr := asAPIError(t, err)
	if apiErr.Code != apierror.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %s", apiErr.Code)
	}
	if apiErr.Shortfall == nil || *apiErr.Shortfall != 4 {
		t.Errorf("expected shortfall 4, got %v", apiErr.Shortfall)
	}

	// Legacy mode commits the partial decrements before reporting.
	item, _ := repo.GetItemByName(ctx, testUserID, "flour")
	total, _ := repo.TotalRemaining(ctx, item.ID)
	if total != 0 {
		t.Errorf("expected stock drained to 0, got %g", total)
	}
	batches, _ := repo.ListBatches(ctx, item.ID)
	if len(batches) != 0 {
		t.Errorf("expected depleted batches deleted, got %d", len(batches))
	}
}

func TestConsume_NilQuantityRemovesAll(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewStockService(repo)
	ctx := context.Background()

	addBatch(t, svc, "rice", 1, expiryIn(1))
	addBatch(t, svc, "rice", 2, nil)
	addBatch(t, svc, "rice", 3, expiryIn(9))

	if err := svc.Consume(ctx, testUserID, "rice", nil); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	item, _ := repo.GetItemByName(ctx, testUserID, "rice")
	batches, _ := repo.ListBatches(ctx, item.ID)
	if len(batches) != 0 {
		t.Fatalf("expected all batches removed, got %d", len(batches))
	}
	// The item row itself survives removal.
	if item == nil {
		t.Fatalf("expected item to remain")
	}
}

func TestConsume_UnknownItem(t *testing.T) {
	svc := NewStockService(newTestRepo(t))

	err := svc.Consume(context.Background(), testUserID, "caviar", floatPtr(1))
	apiErr := asAPIError(t, err)
	if apiErr.Code != apierror.CodeNotFound {
		t.Errorf("expected not found, got %s", apiErr.Code)
	}
}

func TestConsume_ItemWithNoBatches(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewStockService(repo)
	ctx := context.Background()

	addBatch(t, svc, "tea", 1, nil)
	if err := svc.Consume(ctx, testUserID, "tea", nil); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	err := svc.Consume(ctx, testUserID, "tea", floatPtr(1))
	apiErr := asAPIError(t, err)
	if apiErr.Code != apierror.CodeNotFound {
		t.Errorf("expected not found for drained item, got %s", apiErr.Code)
	}
}

func TestConsume_Validation(t *testing.T) {
	svc := NewStockService(newTestRepo(t))
	ctx := context.Background()

	for _, qty := range []float64{0, -3} {
		err := svc.Consume(ctx, testUserID, "milk", floatPtr(qty))
		apiErr := asAPIError(t, err)
		if apiErr.Code != apierror.CodeValidation {
			t.Errorf("quantity %g: expected validation error, got %s", qty, apiErr.Code)
		}
	}

	err := svc.Consume(ctx, testUserID, "", floatPtr(1))
	apiErr := asAPIError(t, err)
	if apiErr.Code != apierror.CodeValidation {
		t.Errorf("empty name: expected validation error, got %s", apiErr.Code)
	}
}

// Conservation: for every surviving batch, initial quantity minus the sum
// of its consume entries equals its remaining quantity.
func TestConsume_Conservation(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewStockService(repo)
	ctx := context.Background()

	addBatch(t, svc, "oats", 10, expiryIn(1))
	addBatch(t, svc, "oats", 8, expiryIn(5))

	for _, qty := range []float64{3, 2.5, 4} {
		if err := svc.Consume(ctx, testUserID, "oats", floatPtr(qty)); err != nil {
			t.Fatalf("Consume(%g): %v", qty, err)
		}
	}

	item, _ := repo.GetItemByName(ctx, testUserID, "oats")
	batches, err := repo.ListBatches(ctx, item.ID)
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}

	var totalRemaining float64
	for _, b := range batches {
		entries, err := repo.LedgerEntries(ctx, b.ID)
		if err != nil {
			t.Fatalf("LedgerEntries: %v", err)
		}
		var consumed float64
		for _, e := range entries {
			if e.Type == "consume" {
				consumed += e.QuantityChanged
			}
		}
		if got := b.InitialQuantity - consumed; got != b.RemainingQuantity {
			t.Errorf("batch %d: initial %g minus consumed %g = %g, remaining says %g",
				b.ID, b.InitialQuantity, consumed, got, b.RemainingQuantity)
		}
		totalRemaining += b.RemainingQuantity
	}
	if totalRemaining != 8.5 {
		t.Errorf("expected 8.5 left in total, got %g", totalRemaining)
	}
}
