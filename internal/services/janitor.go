package services

import (
	"time"

	"go.uber.org/zap"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/repository"
)

// Janitor expires screening sessions that were abandoned mid-protocol so
// they stop accepting frames and drop out of the active set.
type Janitor struct {
	log      *zap.Logger
	interval time.Duration
	maxAge   time.Duration
}

func NewJanitor(log *zap.Logger, interval, maxAge time.Duration) *Janitor {
	return &Janitor{log: log, interval: interval, maxAge: maxAge}
}

// Start runs the janitor in a goroutine.
func (j *Janitor) Start() {
	j.log.Info("Starting session janitor",
		zap.Duration("interval", j.interval),
		zap.Duration("maxAge", j.maxAge))
	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			<-ticker.C
			j.sweep()
		}
	}()
}

func (j *Janitor) sweep() {
	expired, err := repository.ExpireStaleSessions(j.maxAge)
	if err != nil {
		j.log.Error("Failed to expire stale sessions", zap.Error(err))
		return
	}
	if expired > 0 {
		j.log.Info("Expired stale sessions", zap.Int64("count", expired))
	}
}
