package api

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ServerMetrics собирает сведения о процессе сервера
type ServerMetrics struct {
	StartTime time.Time
}

// ServerInfo ответ /api/server
type ServerInfo struct {
	Uptime        string             `json:"uptime"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	MemoryMB      float64            `json:"memory_mb"`
	CPUPercent    float64            `json:"cpu_percent"`
	Memory        map[string]float64 `json:"memory"`
	Goroutines    int                `json:"goroutines"`
	GoVersion     string             `json:"go_version"`
}

// NewServerMetrics создает новый экземпляр метрик
func NewServerMetrics() *ServerMetrics {
	return &ServerMetrics{
		StartTime: time.Now(),
	}
}

// GetUptime возвращает время работы сервера
func (sm *ServerMetrics) GetUptime() string {
	return formatUptime(time.Since(sm.StartTime))
}

func formatUptime(uptime time.Duration) string {
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// GetCPUUsage возвращает использование CPU процессом в процентах
func (sm *ServerMetrics) GetCPUUsage() (float64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		// Метрика процесса недоступна, берём системную
		cpuPercents, err := cpu.Percent(100*time.Millisecond, false)
		if err != nil || len(cpuPercents) == 0 {
			return 0, err
		}
		return cpuPercents[0], nil
	}
	return cpuPercent, nil
}

// memoryStats детальная статистика памяти в MB
func memoryStats() map[string]float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	const mb = 1024 * 1024
	return map[string]float64{
		"alloc_mb":       float64(m.Alloc) / mb,
		"total_alloc_mb": float64(m.TotalAlloc) / mb,
		"sys_mb":         float64(m.Sys) / mb,
		"heap_alloc_mb":  float64(m.HeapAlloc) / mb,
		"heap_sys_mb":    float64(m.HeapSys) / mb,
		"num_gc":         float64(m.NumGC),
	}
}

// Snapshot текущие показатели процесса
func (sm *ServerMetrics) Snapshot() ServerInfo {
	mem := memoryStats()
	cpuPercent, err := sm.GetCPUUsage()
	if err != nil {
		cpuPercent = -1
	}
	return ServerInfo{
		Uptime:        sm.GetUptime(),
		UptimeSeconds: int64(time.Since(sm.StartTime).Seconds()),
		MemoryMB:      mem["alloc_mb"],
		CPUPercent:    cpuPercent,
		Memory:        mem,
		Goroutines:    runtime.NumGoroutine(),
		GoVersion:     runtime.Version(),
	}
}
