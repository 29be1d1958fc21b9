package app

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
	"go.uber.org/zap"

	"github.com/ecistack/ecommerce/internal/domain"
	"github.com/ecistack/ecommerce/pkg/metrics"
)

// EventLogRetention is how long dispatch records are kept.
const EventLogRetention = 90 * 24 * time.Hour

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@every 30s", func() {
		go a.SchedSystemMonitorTask()
		go a.SchedProcessMonitorTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@every 1m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		a.aggregator.Snapshot(ctx)
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		a.gormDB.
			Where("created_at < ?", time.Now().Add(-EventLogRetention)).
			Delete(&domain.EventLog{})
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedSystemMonitorTask samples host cpu/mem into the local metrics store.
func (a *Application) SchedSystemMonitorTask() {
	percents, err := cpu.Percent(0, false)
	if err == nil && len(percents) > 0 {
		_ = metrics.InsertPoint(metrics.SystemCpuUsage, percents[0])
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		_ = metrics.InsertPoint(metrics.SystemMemUsage, vm.UsedPercent)
	}
}

// SchedProcessMonitorTask samples this process's cpu/rss.
func (a *Application) SchedProcessMonitorTask() {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return
	}
	if pct, err := proc.CPUPercent(); err == nil {
		_ = metrics.InsertPoint(metrics.ProcessCpuUsage, pct)
	}
	if info, err := proc.MemoryInfo(); err == nil && info != nil {
		_ = metrics.InsertPoint(metrics.ProcessMemUsage, float64(info.RSS))
	}
}
