package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
	"github.com/MrSnakeDoc/nvrsync/internal/logger"
)

// HostFunc reconciles a single host and reports what it did.
type HostFunc func(ctx context.Context, host domain.Host) Report

// fanOut runs fn for every host with at most limit in flight and waits
// for all of them. A panic in one host is logged and counted as a
// failure for that host only.
func fanOut(ctx context.Context, hosts []domain.Host, limit int, log logger.Logger, fn HostFunc) Report {
	if limit <= 0 {
		limit = 1
	}

	results := make([]Report, len(hosts))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, host := range hosts {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					log.Error("host reconciliation panicked",
						logger.String("host", host.Name),
						logger.Error(fmt.Errorf("%v", r)))
					results[i] = Report{Hosts: 1, Failed: 1}
				}
			}()
			results[i] = fn(ctx, host)
		}()
	}
	wg.Wait()

	var total Report
	for _, r := range results {
		total.add(r)
	}
	return total
}
