package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/config"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/repository"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/pkg/clients/notifier"
)

// Scheduler runs the periodic low-stock watch. It never touches invoice
// state; session expiry stays lazy and read-driven.
type Scheduler struct {
	cron     *cron.Cron
	store    repository.Store
	notifier notifier.Client
	cfg      config.WatchConfig
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance. notifier may be nil.
func NewScheduler(cfg config.WatchConfig, store repository.Store, n notifier.Client, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:     cron.New(),
		store:    store,
		notifier: n,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start registers the low-stock watch and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.checkLowStock); err != nil {
		s.logger.Error("failed to schedule low-stock watch", zap.Error(err))
		return
	}
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) checkLowStock() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	products, err := s.store.ListLowStockProducts(ctx)
	if err != nil {
		s.logger.Error("low-stock check failed", zap.Error(err))
		return
	}
	if len(products) == 0 {
		return
	}

	for _, p := range products {
		s.logger.Warn("product at or below minimum stock level",
			zap.String("product_id", p.ID),
			zap.String("name", p.Name),
			zap.Float64("stock_quantity", p.StockQuantity),
			zap.Float64("min_stock_level", p.MinStockLevel))
	}

	if s.notifier != nil {
		if err := s.notifier.LowStock(ctx, products); err != nil {
			s.logger.Warn("low-stock notification failed", zap.Error(err))
		}
	}
}
