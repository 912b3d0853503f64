package services

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
)

// MetricsService periodically logs host and process diagnostics so operators
// can spot a wedged or starving board agent from the log stream alone.
type MetricsService struct {
	Interval time.Duration
	Logger   zerolog.Logger

	proc *process.Process

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMetricsService initializes a new MetricsService.
func NewMetricsService(interval time.Duration, logger zerolog.Logger) *MetricsService {
	return &MetricsService{
		Interval: interval,
		Logger:   logger,
	}
}

// Start launches the diagnostics loop in a separate goroutine.
func (m *MetricsService) Start() error {
	if m.ctx != nil {
		m.Logger.Warn().Msg("MetricsService is already running")
		return errors.New("metrics service is already running")
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	m.proc = proc

	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runMetricsLoop()
	}()

	m.Logger.Info().Dur("interval", m.Interval).Msg("MetricsService started successfully")
	return nil
}

// Stop gracefully stops the metrics service.
func (m *MetricsService) Stop() error {
	if m.ctx == nil {
		m.Logger.Warn().Msg("MetricsService is not running")
		return errors.New("metrics service is not running")
	}

	m.cancel()
	m.wg.Wait()

	m.ctx = nil
	m.cancel = nil

	m.Logger.Info().Msg("MetricsService stopped successfully")
	return nil
}

func (m *MetricsService) runMetricsLoop() {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.collect()
		case <-m.ctx.Done():
			m.Logger.Info().Msg("MetricsService stopping gracefully")
			return
		}
	}
}

func (m *MetricsService) collect() {
	event := m.Logger.Info().Int("goroutines", runtime.NumGoroutine())

	if percentages, err := cpu.Percent(0, false); err != nil {
		m.Logger.Error().Err(err).Msg("Failed to get CPU usage")
	} else if len(percentages) > 0 {
		event = event.Float64("cpu_percent", percentages[0])
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		m.Logger.Error().Err(err).Msg("Failed to get memory usage")
	} else {
		event = event.Float64("mem_percent", vm.UsedPercent)
	}

	if memInfo, err := m.proc.MemoryInfo(); err == nil && memInfo != nil {
		event = event.Uint64("rss_bytes", memInfo.RSS)
	}

	event.Msg("Agent diagnostics")
}
