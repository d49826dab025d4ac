package scheduler

import (
	"context"
	"time"

	"availability-service/internal/service"

	"go.uber.org/zap"
)

const reconcileWindowDays = 365

type Scheduler struct {
	svc    service.Availability
	log    *zap.Logger
	stopCh chan struct{}
}

func NewScheduler(svc service.Availability, log *zap.Logger) *Scheduler {
	return &Scheduler{
		svc:    svc,
		log:    log,
		stopCh: make(chan struct{}),
	}
}

// Start запускает фоновые задачи планировщика
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("starting availability scheduler")
	go s.runDailyReconciliation(ctx)
}

// Stop останавливает планировщик
func (s *Scheduler) Stop() {
	s.log.Info("stopping availability scheduler")
	close(s.stopCh)
}

// runDailyReconciliation раз в сутки сверяет окно [сегодня, +365) по всем отелям
func (s *Scheduler) runDailyReconciliation(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	// Выполняем сразу при старте
	s.reconcileOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.reconcileOnce(ctx)
		case <-s.stopCh:
			s.log.Info("reconciliation schedule stopped")
			return
		case <-ctx.Done():
			s.log.Info("reconciliation schedule cancelled")
			return
		}
	}
}

func (s *Scheduler) reconcileOnce(ctx context.Context) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, reconcileWindowDays)

	if _, err := s.svc.ReconcileAll(ctx, from, to); err != nil {
		s.log.Error("scheduled reconciliation failed", zap.Error(err))
	}
}
