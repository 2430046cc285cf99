package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/axionhq/axion-router/internal/biz/repo"
	"github.com/axionhq/axion-router/internal/biz/usecase"
)

// PresenceJanitor periodically forces offline respondents whose lastSeen
// is past the hard staleness threshold
type PresenceJanitor struct {
	companyRepo repo.CompanyRepo
	presenceUC  *usecase.PresenceUsecase

	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewPresenceJanitor creates a new presence janitor
func NewPresenceJanitor(companyRepo repo.CompanyRepo, presenceUC *usecase.PresenceUsecase, interval time.Duration) *PresenceJanitor {
	return &PresenceJanitor{
		companyRepo: companyRepo,
		presenceUC:  presenceUC,
		interval:    interval,
	}
}

// Start starts the janitor
func (j *PresenceJanitor) Start(ctx context.Context) {
	j.ctx, j.cancel = context.WithCancel(ctx)

	j.wg.Add(1)
	go j.sweepLoop()

	fmt.Printf("[Janitor] Started with interval %v\n", j.interval)
}

// Stop stops the janitor
func (j *PresenceJanitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
	fmt.Println("[Janitor] Stopped")
}

func (j *PresenceJanitor) sweepLoop() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

// sweep corrects stale presence flags for every company
func (j *PresenceJanitor) sweep() {
	ctx := context.Background()

	companyIDs, err := j.companyRepo.ListIDs(ctx)
	if err != nil {
		fmt.Printf("[Janitor] Failed to list companies: %v\n", err)
		return
	}

	var corrected int64
	for _, companyID := range companyIDs {
		count, err := j.presenceUC.SweepStale(ctx, companyID)
		if err != nil {
			fmt.Printf("[Janitor] Sweep failed for company %s: %v\n", companyID, err)
			continue
		}
		corrected += count
	}

	if corrected > 0 {
		fmt.Printf("[Janitor] Forced %d stale respondents offline\n", corrected)
	}
}
