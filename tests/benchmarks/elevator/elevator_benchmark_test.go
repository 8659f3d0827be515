package elevator_benchmarks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/elevio/tracecheck/internal/checker"
	"github.com/elevio/tracecheck/internal/script"
	"github.com/elevio/tracecheck/internal/trace"
)

const benchScript = "[1.0]1-PRI-50-FROM-F1-TO-F3\n"

const benchLog = `[1.0]RECEIVE-1-1
[1.4]OPEN-F1-1
[1.8]IN-1-F1-1
[1.9]CLOSE-F1-1
[2.3]ARRIVE-F2-1
[2.7]ARRIVE-F3-1
[2.8]OPEN-F3-1
[3.2]OUT-S-1-F3-1
[3.3]CLOSE-F3-1
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// BenchmarkChecker_Run benchmarks the full parse-replay-audit pipeline
// against a single-passenger happy-path trace.
func BenchmarkChecker_Run(b *testing.B) {
	b.ReportAllocs()
	ctx := context.Background()
	logger := discardLogger()

	for i := 0; i < b.N; i++ {
		_, err := checker.Run(ctx, strings.NewReader(benchScript), strings.NewReader(benchLog), checker.Options{Logger: logger})
		if err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkScript_Parse benchmarks request-script tokenization alone.
func BenchmarkScript_Parse(b *testing.B) {
	b.ReportAllocs()
	logger := discardLogger()

	for i := 0; i < b.N; i++ {
		if _, err := script.Parse(strings.NewReader(benchScript), logger); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkTrace_Parse benchmarks execution-log tokenization alone.
func BenchmarkTrace_Parse(b *testing.B) {
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := trace.Parse(strings.NewReader(benchLog)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkChecker_Run_ManyPassengers benchmarks the pipeline against a
// wider trace so allocation growth with passenger count is visible.
func BenchmarkChecker_Run_ManyPassengers(b *testing.B) {
	var scriptBuf, logBuf strings.Builder
	const n = 50
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&scriptBuf, "[1.0]%d-PRI-50-FROM-F1-TO-F3\n", i)
		fmt.Fprintf(&logBuf, "[1.0]RECEIVE-%d-1\n", i)
	}
	logBuf.WriteString("[1.4]OPEN-F1-1\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&logBuf, "[1.%d]IN-%d-F1-1\n", i%9+1, i)
	}
	logBuf.WriteString("[1.9]CLOSE-F1-1\n")
	logBuf.WriteString("[2.3]ARRIVE-F2-1\n")
	logBuf.WriteString("[2.7]ARRIVE-F3-1\n")
	logBuf.WriteString("[2.8]OPEN-F3-1\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&logBuf, "[3.%d]OUT-S-%d-F3-1\n", i%9+1, i)
	}
	logBuf.WriteString("[4.0]CLOSE-F3-1\n")

	scriptText := scriptBuf.String()
	logText := logBuf.String()

	b.ResetTimer()
	b.ReportAllocs()

	ctx := context.Background()
	logger := discardLogger()

	for i := 0; i < b.N; i++ {
		_, err := checker.Run(ctx, strings.NewReader(scriptText), strings.NewReader(logText), checker.Options{Logger: logger})
		if err != nil {
			b.Fatal(err)
		}
	}
}
