package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pantry-rest-api/internal/model"
)

func newTestRepo(t *testing.T) *SQLitePantryRepository {
	t.Helper()

	repo, err := NewSQLitePantryRepository(filepath.Join(t.TempDir(), "pantry.db"))
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestItem(t *testing.T, repo *SQLitePantryRepository, userID int64, name string) int64 {
	t.Helper()

	itemID, err := repo.CreateItem(context.Background(), userID, 1, name)
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}
	return itemID
}

func datePtr(t time.Time) *time.Time {
	return &t
}

func TestSeedCategories(t *testing.T) {
	repo := newTestRepo(t)

	cats, err := repo.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != len(defaultCategories) {
		t.Fatalf("expected %d categories, got %d", len(defaultCategories), len(cats))
	}
	if cats[0].Name != "Produce" {
		t.Errorf("expected first category Produce, got %q", cats[0].Name)
	}
}

func TestListBatches_FIFOByExpiry(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	itemID := newTestItem(t, repo, 1, "milk")

	day := 24 * time.Hour
	now := time.Now()

	// Insert out of order: no-expiry first, then late, then early.
	noExpiry, _ := repo.CreateBatch(ctx, itemID, model.NewBatch{Quantity: 5, Unit: "l"})
	late, _ := repo.CreateBatch(ctx, itemID, model.NewBatch{Quantity: 5, Unit: "l", ExpiryDate: datePtr(now.Add(3 * day))})
	early, _ := repo.CreateBatch(ctx, itemID, model.NewBatch{Quantity: 5, Unit: "l", ExpiryDate: datePtr(now.Add(1 * day))})

	batches, err := repo.ListBatches(ctx, itemID)
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}

	want := []int64{early, late, noExpiry}
	for i, b := range batches {
		if b.ID != want[i] {
			t.Errorf("position %d: expected batch %d, got %d", i, want[i], b.ID)
		}
	}
	if batches[2].ExpiryDate != nil {
		t.Errorf("expected no-expiry batch last")
	}
}

func TestCreateBatch_WritesAddEntry(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	itemID := newTestItem(t, repo, 1, "eggs")

	batchID, err := repo.CreateBatch(ctx, itemID, model.NewBatch{Quantity: 12, Unit: "pcs"})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	entries, err := repo.LedgerEntries(ctx, batchID)
	if err != nil {
		t.Fatalf("LedgerEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	if entries[0].Type != model.TxAdd {
		t.Errorf("expected add entry, got %q", entries[0].Type)
	}
	if entries[0].QuantityChanged != 12 {
		t.Errorf("expected quantity 12, got %g", entries[0].QuantityChanged)
	}

	b, err := repo.GetBatch(ctx, batchID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if b.InitialQuantity != 12 || b.RemainingQuantity != 12 {
		t.Errorf("expected initial=remaining=12, got %g/%g", b.InitialQuantity, b.RemainingQuantity)
	}
}

func TestConsumeFromBatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	itemID := newTestItem(t, repo, 1, "flour")

	batchID, _ := repo.CreateBatch(ctx, itemID, model.NewBatch{Quantity: 10, Unit: "kg"})

	consumed, newRemaining, err := repo.ConsumeFromBatch(ctx, batchID, 4)
	if err != nil {
		t.Fatalf("ConsumeFromBatch: %v", err)
	}
	if consumed != 4 {
		t.Errorf("expected 4 consumed, got %g", consumed)
	}
	if newRemaining != 6 {
		t.Errorf("expected remaining 6, got %g", newRemaining)
	}

	entries, _ := repo.LedgerEntries(ctx, batchID)
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
	if entries[1].Type != model.TxConsume || entries[1].QuantityChanged != 4 {
		t.Errorf("expected consume entry of 4, got %q/%g", entries[1].Type, entries[1].QuantityChanged)
	}
}

func TestConsumeFromBatch_Missing(t *testing.T) {
	repo := newTestRepo(t)

	_, _, err := repo.ConsumeFromBatch(context.Background(), 9999, 1)
	if !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}
}

// A consumer working from a stale read may request more than the batch
// still holds. The transaction caps the decrement at the quantity it reads
// under the write lock: remaining never goes negative and the ledger never
// records more consumed than existed.
func TestConsumeFromBatch_CapsStaleQuantity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	itemID := newTestItem(t, repo, 1, "flour")

	batchID, _ := repo.CreateBatch(ctx, itemID, model.NewBatch{Quantity: 5, Unit: "kg"})

	if _, _, err := repo.ConsumeFromBatch(ctx, batchID, 4); err != nil {
		t.Fatalf("first consume: %v", err)
	}

	// Request 3 against the 1 actually left.
	consumed, newRemaining, err := repo.ConsumeFromBatch(ctx, batchID, 3)
	if err != nil {
		t.Fatalf("stale consume: %v", err)
	}
	if consumed != 1 {
		t.Errorf("expected 1 consumed, got %g", consumed)
	}
	if newRemaining != 0 {
		t.Errorf("expected remaining 0, got %g", newRemaining)
	}

	b, err := repo.GetBatch(ctx, batchID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if b.RemainingQuantity < 0 {
		t.Errorf("remaining went negative: %g", b.RemainingQuantity)
	}

	entries, _ := repo.LedgerEntries(ctx, batchID)
	var totalConsumed float64
	for _, e := range entries {
		if e.Type == model.TxConsume {
			totalConsumed += e.QuantityChanged
		}
	}
	if totalConsumed > b.InitialQuantity {
		t.Errorf("ledger records %g consumed from a batch of %g", totalConsumed, b.InitialQuantity)
	}

	// A drained batch yields nothing further.
	consumed, newRemaining, err = repo.ConsumeFromBatch(ctx, batchID, 2)
	if err != nil {
		t.Fatalf("consume from drained batch: %v", err)
	}
	if consumed != 0 || newRemaining != 0 {
		t.Errorf("expected 0/0 from drained batch, got %g/%g", consumed, newRemaining)
	}
}

func TestRemoveBatch_PurgesLedger(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	itemID := newTestItem(t, repo, 1, "rice")

	batchID, _ := repo.CreateBatch(ctx, itemID, model.NewBatch{Quantity: 3, Unit: "kg"})

	if err := repo.RemoveBatch(ctx, batchID); err != nil {
		t.Fatalf("RemoveBatch: %v", err)
	}

	b, err := repo.GetBatch(ctx, batchID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if b != nil {
		t.Errorf("expected batch deleted")
	}

	entries, _ := repo.LedgerEntries(ctx, batchID)
	if len(entries) != 0 {
		t.Errorf("expected ledger purged, got %d entries", len(entries))
	}

	// Removing an already-removed batch is a no-op.
	if err := repo.RemoveBatch(ctx, batchID); err != nil {
		t.Fatalf("RemoveBatch on missing batch: %v", err)
	}
}

func TestDeleteBatchAndLedger_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	itemID := newTestItem(t, repo, 1, "beans")

	batchID, _ := repo.CreateBatch(ctx, itemID, model.NewBatch{Quantity: 2, Unit: "kg"})

	if err := repo.DeleteBatchAndLedger(ctx, batchID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := repo.DeleteBatchAndLedger(ctx, batchID); err != nil {
		t.Fatalf("second delete should be a no-op, got: %v", err)
	}
}

func TestTotalRemaining(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	itemID := newTestItem(t, repo, 1, "butter")

	if _, err := repo.CreateBatch(ctx, itemID, model.NewBatch{Quantity: 1.5, Unit: "kg"}); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if _, err := repo.CreateBatch(ctx, itemID, model.NewBatch{Quantity: 2.5, Unit: "kg"}); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	total, err := repo.TotalRemaining(ctx, itemID)
	if err != nil {
		t.Fatalf("TotalRemaining: %v", err)
	}
	if total != 4 {
		t.Errorf("expected total 4, got %g", total)
	}

	// Unknown item sums to zero, not an error.
	total, err = repo.TotalRemaining(ctx, 9999)
	if err != nil {
		t.Fatalf("TotalRemaining unknown item: %v", err)
	}
	if total != 0 {
		t.Errorf("expected total 0, got %g", total)
	}
}

func TestUpsertRestockAlert_SingleRow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	itemID := newTestItem(t, repo, 1, "coffee")

	if err := repo.UpsertRestockAlert(ctx, itemID, 5); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := repo.UpsertRestockAlert(ctx, itemID, 2); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	// No stock at all, so the alert triggers; exactly one row with the
	// latest threshold.
	alerts, err := repo.ListLowStock(ctx, 1)
	if err != nil {
		t.Fatalf("ListLowStock: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].MinQuantity != 2 {
		t.Errorf("expected latest threshold 2, got %g", alerts[0].MinQuantity)
	}
	if alerts[0].TotalRemaining != 0 {
		t.Errorf("expected zero remaining, got %g", alerts[0].TotalRemaining)
	}
}

func TestListLowStock_ThresholdBoundary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	atThreshold := newTestItem(t, repo, 1, "salt")
	aboveThreshold := newTestItem(t, repo, 1, "sugar")

	if _, err := repo.CreateBatch(ctx, atThreshold, model.NewBatch{Quantity: 5, Unit: "g"}); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if _, err := repo.CreateBatch(ctx, aboveThreshold, model.NewBatch{Quantity: 6, Unit: "g"}); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	repo.UpsertRestockAlert(ctx, atThreshold, 5)
	repo.UpsertRestockAlert(ctx, aboveThreshold, 5)

	alerts, err := repo.ListLowStock(ctx, 1)
	if err != nil {
		t.Fatalf("ListLowStock: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].ItemName != "salt" {
		t.Errorf("expected salt flagged, got %q", alerts[0].ItemName)
	}
}

func TestListExpiring_Boundary(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	itemID := newTestItem(t, repo, 1, "yogurt")

	now := time.Now()
	cutoff := now.AddDate(0, 0, 3)

	if _, err := repo.CreateBatch(ctx, itemID, model.NewBatch{Quantity: 1, Unit: "pcs", ExpiryDate: datePtr(now.AddDate(0, 0, 3))}); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if _, err := repo.CreateBatch(ctx, itemID, model.NewBatch{Quantity: 1, Unit: "pcs", ExpiryDate: datePtr(now.AddDate(0, 0, 4))}); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	alerts, err := repo.ListExpiring(ctx, 1, cutoff)
	if err != nil {
		t.Fatalf("ListExpiring: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected 1 expiring batch, got %d", len(alerts))
	}
	if got := alerts[0].ExpiryDate.Format("2006-01-02"); got != cutoff.Format("2006-01-02") {
		t.Errorf("expected expiry on the boundary day, got %s", got)
	}
}

func TestListExpiring_SkipsDrainedAndUndated(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	itemID := newTestItem(t, repo, 1, "cream")

	now := time.Now()

	drained, _ := repo.CreateBatch(ctx, itemID, model.NewBatch{Quantity: 2, Unit: "l", ExpiryDate: datePtr(now.AddDate(0, 0, 1))})
	if _, _, err := repo.ConsumeFromBatch(ctx, drained, 2); err != nil {
		t.Fatalf("ConsumeFromBatch: %v", err)
	}
	if _, err := repo.CreateBatch(ctx, itemID, model.NewBatch{Quantity: 2, Unit: "l"}); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	alerts, err := repo.ListExpiring(ctx, 1, now.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("ListExpiring: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %d", len(alerts))
	}
}

func TestAvailableRecipes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	flour := newTestItem(t, repo, 1, "flour")
	milk := newTestItem(t, repo, 1, "milk")

	if _, err := repo.CreateBatch(ctx, flour, model.NewBatch{Quantity: 500, Unit: "g"}); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if _, err := repo.CreateBatch(ctx, milk, model.NewBatch{Quantity: 1, Unit: "l"}); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	// Pancakes are covered; bread needs more flour than stocked; custard
	// asks for milk in a unit the stock does not match.
	mustExec(t, repo, `INSERT INTO recipes (recipe_id, name) VALUES (1, 'pancakes'), (2, 'bread'), (3, 'custard')`)
	mustExec(t, repo, `INSERT INTO recipe_ingredients (recipe_id, item_id, quantity_needed, unit) VALUES
		(1, ?, 200, 'g'), (1, ?, 0.5, 'l'),
		(2, ?, 900, 'g'),
		(3, ?, 500, 'ml')`, flour, milk, flour, milk)

	recipes, err := repo.AvailableRecipes(ctx, 1)
	if err != nil {
		t.Fatalf("AvailableRecipes: %v", err)
	}
	if len(recipes) != 1 {
		t.Fatalf("expected 1 available recipe, got %d", len(recipes))
	}
	if recipes[0].Name != "pancakes" {
		t.Errorf("expected pancakes, got %q", recipes[0].Name)
	}
}

func mustExec(t *testing.T, repo *SQLitePantryRepository, query string, args ...interface{}) {
	t.Helper()
	if _, err := repo.db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func TestUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID, err := repo.CreateUser(ctx, "Ada", "ada@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := repo.GetUserByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if u == nil || u.ID != userID || u.Name != "Ada" {
		t.Fatalf("unexpected user: %+v", u)
	}

	if _, err := repo.CreateUser(ctx, "Ada II", "ada@example.com", "hash"); err == nil {
		t.Errorf("expected duplicate email to fail")
	}

	missing, err := repo.GetUser(ctx, 9999)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing user")
	}
}

func TestGetItemByName_ScopedToUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	newTestItem(t, repo, 1, "honey")

	item, err := repo.GetItemByName(ctx, 2, "honey")
	if err != nil {
		t.Fatalf("GetItemByName: %v", err)
	}
	if item != nil {
		t.Errorf("expected no item for another user")
	}
}
