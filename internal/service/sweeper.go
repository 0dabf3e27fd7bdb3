package service

import (
	"context"
	"log"
	"sync"
	"time"

	"pantry-rest-api/internal/repository"
)

// SweeperConfig holds configuration for the alert sweeper.
type SweeperConfig struct {
	// Interval is how often the sweep runs. Default: 1 hour.
	Interval time.Duration

	// ExpiryHorizonDays is the lookahead for the expiring-batch count.
	// Default: 3 days.
	ExpiryHorizonDays int
}

// AlertSweeper periodically counts triggered restock alerts and expiring
// batches and logs the totals. Purely advisory: it never writes, and a
// stale read is fine.
type AlertSweeper struct {
	repo      repository.PantryRepository
	config    SweeperConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewAlertSweeper creates an alert sweeper.
func NewAlertSweeper(repo repository.PantryRepository, config SweeperConfig) *AlertSweeper {
	if config.Interval == 0 {
		config.Interval = time.Hour
	}
	if config.ExpiryHorizonDays <= 0 {
		config.ExpiryHorizonDays = 3
	}

	return &AlertSweeper{
		repo:   repo,
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (s *AlertSweeper) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	log.Printf("[AlertSweeper] Started - interval: %v, horizon: %d days",
		s.config.Interval, s.config.ExpiryHorizonDays)

	go s.run()
}

func (s *AlertSweeper) run() {
	for {
		select {
		case <-s.ticker.C:
			s.Sweep()
		case <-s.stopCh:
			log.Printf("[AlertSweeper] Stopped")
			return
		}
	}
}

// Sweep runs one evaluation pass and logs the counts.
func (s *AlertSweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	lowStock, err := s.repo.CountLowStock(ctx)
	if err != nil {
		log.Printf("[AlertSweeper] Low-stock count failed: %v", err)
		return
	}

	until := time.Now().AddDate(0, 0, s.config.ExpiryHorizonDays)
	expiring, err := s.repo.CountExpiringBatches(ctx, until)
	if err != nil {
		log.Printf("[AlertSweeper] Expiring count failed: %v", err)
		return
	}

	log.Printf("[AlertSweeper] %d low-stock alerts, %d batches expiring by %s",
		lowStock, expiring, until.Format("2006-01-02"))
}

// Stop stops the sweep loop.
func (s *AlertSweeper) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}
