// Package monitoring runs the background jobs of the server: host stat sampling
// and activity log retention.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/isdelr/userdir/internal/models"
	"github.com/isdelr/userdir/internal/services"
)

const highCPUAlertCooldown = 15 * time.Minute

// HostSampler reads host resource usage.
type HostSampler interface {
	CPUPercent(ctx context.Context) (float64, error)
	MemoryPercent(ctx context.Context) (float64, error)
}

type gopsutilSampler struct{}

// NewHostSampler returns a sampler backed by gopsutil.
func NewHostSampler() HostSampler {
	return gopsutilSampler{}
}

// CPUPercent returns the overall CPU usage since the previous call.
func (gopsutilSampler) CPUPercent(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, errors.New("no cpu sample")
	}
	return percents[0], nil
}

// MemoryPercent returns the share of physical memory in use.
func (gopsutilSampler) MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// StatUpdater is responsible for periodically sampling host and directory stats
// into gauges.
type StatUpdater struct {
	sampler   HostSampler
	userSvc   services.UserServiceProvider
	eventSvc  services.EventServiceProvider
	threshold float64

	cpuGauge   prometheus.Gauge
	memGauge   prometheus.Gauge
	usersGauge prometheus.Gauge

	lastCPUAlert time.Time
	now          func() time.Time
}

// NewStatUpdater creates a new StatUpdater and registers its gauges. A CPU reading
// above cpuThreshold percent records a warning event, at most once per cooldown.
func NewStatUpdater(reg prometheus.Registerer, sampler HostSampler, userSvc services.UserServiceProvider, eventSvc services.EventServiceProvider, cpuThreshold float64) *StatUpdater {
	su := &StatUpdater{
		sampler:   sampler,
		userSvc:   userSvc,
		eventSvc:  eventSvc,
		threshold: cpuThreshold,
		cpuGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "userdir_host_cpu_percent",
			Help: "Host CPU usage percent at the last sample",
		}),
		memGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "userdir_host_memory_percent",
			Help: "Host memory usage percent at the last sample",
		}),
		usersGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "userdir_users",
			Help: "Number of user records at the last sample",
		}),
		now: time.Now,
	}
	reg.MustRegister(su.cpuGauge, su.memGauge, su.usersGauge)
	return su
}

// Run samples every interval until ctx is cancelled.
func (su *StatUpdater) Run(ctx context.Context, interval time.Duration) {
	log.Info().Dur("interval", interval).Msg("Starting background stat updater...")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run once immediately on start
	su.update(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-ticker.C:
			su.update(ctx)
		}
	}
}

// update takes one sample. Each reading is independent; a failed one leaves its
// gauge at the previous value.
func (su *StatUpdater) update(ctx context.Context) {
	if cpuPercent, err := su.sampler.CPUPercent(ctx); err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Failed to read CPU usage")
	} else {
		su.cpuGauge.Set(cpuPercent)
		su.checkAndAlertForHighCPU(ctx, cpuPercent)
	}

	if memPercent, err := su.sampler.MemoryPercent(ctx); err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Failed to read memory usage")
	} else {
		su.memGauge.Set(memPercent)
	}

	if users, err := su.userSvc.List(ctx); err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Failed to count users")
	} else {
		su.usersGauge.Set(float64(len(users)))
	}
}

func (su *StatUpdater) checkAndAlertForHighCPU(ctx context.Context, cpuPercent float64) {
	if cpuPercent <= su.threshold {
		return
	}
	now := su.now()
	// If an alert was sent recently, do nothing.
	if !su.lastCPUAlert.IsZero() && now.Sub(su.lastCPUAlert) < highCPUAlertCooldown {
		return
	}
	msg := fmt.Sprintf("High CPU usage (%.1f%%) detected on the host.", cpuPercent)
	if err := su.eventSvc.CreateEvent(ctx, models.EventHighCPU, models.LevelWarn, msg, nil); err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Failed to record CPU alert")
		return
	}
	su.lastCPUAlert = now
}
