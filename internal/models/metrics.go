package models

import "time"

// SystemMetrics is a JSON friendly snapshot of in-process counters.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	AllocationRuns           uint64    `json:"allocation_runs"`
	AllocationFailures       uint64    `json:"allocation_failures"`
	StudentsPlaced           uint64    `json:"students_placed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
