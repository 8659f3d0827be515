package checker

import (
	"fmt"

	"github.com/elevio/tracecheck/internal/domain"
)

// Report is the outcome of a full replay: either an acceptance with
// statistics, or a count of recorded violations (spec.md §4.13).
type Report struct {
	Accepted     bool
	ErrorCount   int
	Errors       []string
	ByCategory   map[domain.ErrCategory]int
	RuntimeSec   float64
	WeightedWait float64
	EnergyWatt   float64
}

// BuildReport computes the summary statistics from the World's final
// state: runtime is the last observed tick, weighted wait is the
// priority-weighted mean of each passenger's (arrive - send) interval.
func (w *World) BuildReport() Report {
	if len(w.Errors) > 0 {
		msgs := make([]string, len(w.Errors))
		for i, e := range w.Errors {
			msgs[i] = e.Error()
		}
		return Report{Accepted: false, ErrorCount: len(w.Errors), Errors: msgs, ByCategory: w.PerCategoryErrorCount}
	}

	var totalPriority int
	var weightedWaitSum float64
	for _, p := range w.Passengers {
		totalPriority += p.Priority
		weightedWaitSum += p.Wait()
	}

	avgWait := 0.0
	if totalPriority > 0 {
		avgWait = weightedWaitSum / float64(totalPriority)
	}

	return Report{
		Accepted:     true,
		RuntimeSec:   w.LastOutputTick,
		WeightedWait: avgWait,
		EnergyWatt:   w.Watt,
	}
}

// Summary renders the report as the exact stdout line spec.md §4.13 and
// §6 specify.
func (r Report) Summary() string {
	if r.Accepted {
		return fmt.Sprintf("Accepted\t运行时间: %.1fs\t等待时间: %.3fs\t耗电量: %.1f",
			r.RuntimeSec, r.WeightedWait, r.EnergyWatt)
	}
	return fmt.Sprintf("检测到 %d 个错误，请检查输出日志。", r.ErrorCount)
}
