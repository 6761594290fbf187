package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"github.com/shoaibhasann/zahra/pkg/logger"
	"github.com/shoaibhasann/zahra/pkg/shiprocket"
)

// MaintenanceScheduler runs the periodic housekeeping jobs: sweeping expired
// guest carts and keeping the shipping token warm so requests never pay the
// login latency.
type MaintenanceScheduler struct {
	cron     *cron.Cron
	cartRepo repository.CartRepository
	tokens   *shiprocket.TokenProvider
}

func NewMaintenanceScheduler(cartRepo repository.CartRepository, tokens *shiprocket.TokenProvider) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		cron:     cron.New(),
		cartRepo: cartRepo,
		tokens:   tokens,
	}
}

func (s *MaintenanceScheduler) Start() error {
	// Hourly: deactivate guest carts past their expiry.
	_, err := s.cron.AddFunc("0 * * * *", func() {
		swept, err := s.cartRepo.DeactivateExpired(time.Now())
		if err != nil {
			logger.Error("Failed to sweep expired guest carts", err)
			return
		}
		if swept > 0 {
			logger.Info("Swept expired guest carts", map[string]interface{}{
				"count": swept,
			})
		}
	})
	if err != nil {
		logger.Error("Failed to add cron job for cart sweep", err)
		return err
	}

	// Every six hours: touch the shipping token so a refresh happens before
	// any request needs it.
	_, err = s.cron.AddFunc("30 */6 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.tokens.GetValid(ctx); err != nil {
			logger.Error("Failed to refresh shipping token", err)
		}
	})
	if err != nil {
		logger.Error("Failed to add cron job for token refresh", err)
		return err
	}

	s.cron.Start()
	logger.Info("Maintenance scheduler started successfully", nil)
	return nil
}

func (s *MaintenanceScheduler) Stop() {
	logger.Info("Stopping maintenance scheduler...", nil)
	s.cron.Stop()
}
