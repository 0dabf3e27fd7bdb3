package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pantry-rest-api/internal/cache"
	"pantry-rest-api/internal/model"
	"pantry-rest-api/internal/repository"
	"pantry-rest-api/pkg/apierror"
)

// AlertService evaluates restock and expiry alerts. Both are advisory read
// paths over the batch store: results go through the cache and a stale read
// is acceptable.
type AlertService struct {
	repo        repository.PantryRepository
	cache       cache.Cache
	cacheTTL    time.Duration
	horizonDays int
}

// NewAlertService creates an alert service. cache may be nil to disable
// caching (tests, degraded mode).
func NewAlertService(repo repository.PantryRepository, c cache.Cache, cacheTTL time.Duration, horizonDays int) *AlertService {
	if repo == nil {
		return nil
	}
	if horizonDays <= 0 {
		horizonDays = 3
	}
	return &AlertService{
		repo:        repo,
		cache:       c,
		cacheTTL:    cacheTTL,
		horizonDays: horizonDays,
	}
}

func restockKey(userID int64) string {
	return fmt.Sprintf("alerts:restock:%d", userID)
}

func expiryKey(userID int64) string {
	return fmt.Sprintf("alerts:expiry:%d", userID)
}

// RestockAlerts returns the user's triggered restock alerts: enabled alerts
// whose aggregate remaining quantity is at or below the threshold.
func (s *AlertService) RestockAlerts(ctx context.Context, userID int64) ([]model.LowStockAlert, error) {
	if s.cache == nil {
		return s.repo.ListLowStock(ctx, userID)
	}

	data, err := s.cache.GetOrSet(ctx, restockKey(userID), s.cacheTTL, func() ([]byte, error) {
		alerts, err := s.repo.ListLowStock(ctx, userID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(alerts)
	})
	if err != nil {
		return nil, err
	}

	var alerts []model.LowStockAlert
	if err := json.Unmarshal(data, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// SetRestockAlert creates or replaces the restock alert for an item owned
// by the user. Re-submitting replaces the threshold and re-enables it.
func (s *AlertService) SetRestockAlert(ctx context.Context, userID, itemID int64, minQuantity float64) error {
	if itemID <= 0 {
		return apierror.Validation("item_id is required")
	}
	if minQuantity < 0 {
		return apierror.Validation("min_quantity must not be negative")
	}

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil || item.UserID != userID {
		return apierror.NotFound("item not found")
	}

	if err := s.repo.UpsertRestockAlert(ctx, itemID, minQuantity); err != nil {
		return err
	}

	if s.cache != nil {
		// Drop the cached evaluation so the new threshold shows up promptly.
		_ = s.cache.Delete(ctx, restockKey(userID))
	}
	return nil
}

// ExpiryAlerts returns batches with stock left that expire within the
// horizon, soonest first. The horizon boundary day is included.
func (s *AlertService) ExpiryAlerts(ctx context.Context, userID int64) ([]model.ExpiryAlert, error) {
	until := time.Now().AddDate(0, 0, s.horizonDays)

	if s.cache == nil {
		return s.repo.ListExpiring(ctx, userID, until)
	}

	data, err := s.cache.GetOrSet(ctx, expiryKey(userID), s.cacheTTL, func() ([]byte, error) {
		alerts, err := s.repo.ListExpiring(ctx, userID, until)
		if err != nil {
			return nil, err
		}
		return json.Marshal(alerts)
	})
	if err != nil {
		return nil, err
	}

	var alerts []model.ExpiryAlert
	if err := json.Unmarshal(data, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}
