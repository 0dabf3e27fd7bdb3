package service

import (
	"context"
	"testing"
	"time"

	"pantry-rest-api/internal/cache"
	"pantry-rest-api/pkg/apierror"
)

func TestSetRestockAlert_UpsertReplacesThreshold(t *testing.T) {
	repo := newTestRepo(t)
	stock := NewStockService(repo)
	alerts := NewAlertService(repo, nil, 0, 3)
	ctx := context.Background()

	addBatch(t, stock, "coffee", 3, nil)
	item, _ := repo.GetItemByName(ctx, testUserID, "coffee")

	if err := alerts.SetRestockAlert(ctx, testUserID, item.ID, 10); err != nil {
		t.Fatalf("SetRestockAlert: %v", err)
	}
	if err := alerts.SetRestockAlert(ctx, testUserID, item.ID, 2); err != nil {
		t.Fatalf("SetRestockAlert again: %v", err)
	}

	// Stocked at 3 with threshold 2: no alert under the latest threshold.
	low, err := alerts.RestockAlerts(ctx, testUserID)
	if err != nil {
		t.Fatalf("RestockAlerts: %v", err)
	}
	if len(low) != 0 {
		t.Fatalf("expected no alerts under the lowered threshold, got %d", len(low))
	}
}

func TestSetRestockAlert_OwnershipAndValidation(t *testing.T) {
	repo := newTestRepo(t)
	stock := NewStockService(repo)
	alerts := NewAlertService(repo, nil, 0, 3)
	ctx := context.Background()

	addBatch(t, stock, "coffee", 3, nil)
	item, _ := repo.GetItemByName(ctx, testUserID, "coffee")

	err := alerts.SetRestockAlert(ctx, testUserID+1, item.ID, 1)
	if apiErr := asAPIError(t, err); apiErr.Code != apierror.CodeNotFound {
		t.Errorf("other user's item: expected not found, got %s", apiErr.Code)
	}

	err = alerts.SetRestockAlert(ctx, testUserID, 0, 1)
	if apiErr := asAPIError(t, err); apiErr.Code != apierror.CodeValidation {
		t.Errorf("zero item id: expected validation error, got %s", apiErr.Code)
	}

	err = alerts.SetRestockAlert(ctx, testUserID, item.ID, -1)
	if apiErr := asAPIError(t, err); apiErr.Code != apierror.CodeValidation {
		t.Errorf("negative threshold: expected validation error, got %s", apiErr.Code)
	}
}

func TestRestockAlerts_TriggerAfterConsumption(t *testing.T) {
	repo := newTestRepo(t)
	stock := NewStockService(repo)
	alerts := NewAlertService(repo, nil, 0, 3)
	ctx := context.Background()

	addBatch(t, stock, "pasta", 6, nil)
	item, _ := repo.GetItemByName(ctx, testUserID, "pasta")
	if err := alerts.SetRestockAlert(ctx, testUserID, item.ID, 2); err != nil {
		t.Fatalf("SetRestockAlert: %v", err)
	}

	low, _ := alerts.RestockAlerts(ctx, testUserID)
	if len(low) != 0 {
		t.Fatalf("expected no alert at 6/2, got %d", len(low))
	}

	if err := stock.Consume(ctx, testUserID, "pasta", floatPtr(4)); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	low, err := alerts.RestockAlerts(ctx, testUserID)
	if err != nil {
		t.Fatalf("RestockAlerts: %v", err)
	}
	if len(low) != 1 {
		t.Fatalf("expected 1 alert at 2/2, got %d", len(low))
	}
	if low[0].ItemName != "pasta" || low[0].TotalRemaining != 2 {
		t.Errorf("unexpected alert: %+v", low[0])
	}
}

func TestRestockAlerts_CacheServesStaleUntilInvalidated(t *testing.T) {
	repo := newTestRepo(t)
	stock := NewStockService(repo)
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })
	alerts := NewAlertService(repo, c, time.Minute, 3)
	ctx := context.Background()

	addBatch(t, stock, "beans", 1, nil)
	item, _ := repo.GetItemByName(ctx, testUserID, "beans")
	if err := alerts.SetRestockAlert(ctx, testUserID, item.ID, 5); err != nil {
		t.Fatalf("SetRestockAlert: %v", err)
	}

	low, err := alerts.RestockAlerts(ctx, testUserID)
	if err != nil {
		t.Fatalf("RestockAlerts: %v", err)
	}
	if len(low) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(low))
	}

	// Restocking does not invalidate; the cached evaluation is served stale.
	addBatch(t, stock, "beans", 10, nil)
	low, _ = alerts.RestockAlerts(ctx, testUserID)
	if len(low) != 1 {
		t.Fatalf("expected stale cached alert, got %d", len(low))
	}

	// Re-submitting the alert drops the cache entry.
	if err := alerts.SetRestockAlert(ctx, testUserID, item.ID, 5); err != nil {
		t.Fatalf("SetRestockAlert: %v", err)
	}
	low, _ = alerts.RestockAlerts(ctx, testUserID)
	if len(low) != 0 {
		t.Fatalf("expected fresh evaluation after invalidation, got %d", len(low))
	}
}

func TestExpiryAlerts_HorizonBoundary(t *testing.T) {
	repo := newTestRepo(t)
	stock := NewStockService(repo)
	alerts := NewAlertService(repo, nil, 0, 3)
	ctx := context.Background()

	addBatch(t, stock, "yogurt", 2, expiryIn(3))
	addBatch(t, stock, "yogurt", 2, expiryIn(4))
	addBatch(t, stock, "cheese", 1, nil)

	got, err := alerts.ExpiryAlerts(ctx, testUserID)
	if err != nil {
		t.Fatalf("ExpiryAlerts: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected only the boundary-day batch, got %d", len(got))
	}
	if got[0].ItemName != "yogurt" {
		t.Errorf("expected yogurt, got %q", got[0].ItemName)
	}
}
