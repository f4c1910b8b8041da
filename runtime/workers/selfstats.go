package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"chat-relay/observability"

	"github.com/shirou/gopsutil/process"
)

// SelfStatsWorker periodically logs process health (RSS, CPU) together
// with the relay's delivery counters.
type SelfStatsWorker struct {
	log        *slog.Logger
	monitoring *observability.Monitoring
	interval   time.Duration
}

func NewSelfStatsWorker(log *slog.Logger, monitoring *observability.Monitoring,
	interval time.Duration) *SelfStatsWorker {
	return &SelfStatsWorker{log: log, monitoring: monitoring, interval: interval}
}

func (w *SelfStatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := getSelfStats(p)
			if err != nil {
				w.log.Warn("Failed to collect self stats", "error", err)
				continue
			}
			stats := w.monitoring.GetLatest()
			w.log.Info("Relay stats",
				"rss_mb", rss>>20,
				"cpu_percent", cpu,
				"connections", stats.Connections,
				"delivered", stats.DeliveredEvents,
				"dropped", stats.DroppedEvents,
				"gateway_failures", stats.GatewayFailures,
			)
		}
	}
}

// getSelfStats retrieves memory and CPU usage for the given process.
func getSelfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
