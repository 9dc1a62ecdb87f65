package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/bankhub/testcard-portal/pkg/composables"
)

// Sweeper periodically expires approved notices whose end date has passed.
// One instance runs per process; the conditional UPDATE keeps multi-instance
// deployments from double-expiring.
type Sweeper struct {
	service  *NotificationService
	pool     *pgxpool.Pool
	interval time.Duration
	log      *logrus.Logger
}

func NewSweeper(service *NotificationService, pool *pgxpool.Pool, interval time.Duration, log *logrus.Logger) *Sweeper {
	return &Sweeper{service: service, pool: pool, interval: interval, log: log}
}

// Run blocks until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := s.sweepOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			s.log.WithError(err).Warn("notifications: sweep tick failed")
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) error {
	expired, err := s.service.ExpireOverdue(composables.WithPool(ctx, s.pool))
	if err != nil {
		return err
	}
	if expired > 0 {
		s.log.WithField("count", expired).Info("notifications: expired notices")
	}
	return nil
}
