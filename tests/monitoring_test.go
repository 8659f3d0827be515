package tests

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elevio/tracecheck/internal/checker"
	"github.com/elevio/tracecheck/internal/domain"
	"github.com/elevio/tracecheck/internal/live"
	"github.com/elevio/tracecheck/metrics"
)

const monitoringScript = "[1.0]1-PRI-50-FROM-F1-TO-F3\n"

const monitoringLog = `[1.0]RECEIVE-1-1
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

// TestCheckerRunPublishesLiveSnapshots runs the checker with a live
// monitor channel attached and verifies a websocket client attached to a
// Hub fed from that channel receives the snapshot frames pushed during
// replay, end to end through the real upgrade handshake.
func TestCheckerRunPublishesLiveSnapshots(t *testing.T) {
	hub := live.NewHub("127.0.0.1:0", discardLogger())

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/trace"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond)

	snapshots := make(chan domain.CarSnapshot, 16)
	go func() {
		for snap := range snapshots {
			hub.Broadcast(snap)
		}
	}()

	report, err := checker.Run(context.Background(),
		strings.NewReader(monitoringScript), strings.NewReader(monitoringLog),
		checker.Options{Logger: discardLogger(), Snapshots: snapshots})
	close(snapshots)
	require.NoError(t, err)
	assert.True(t, report.Accepted)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var first domain.CarSnapshot
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, 0, first.Car)
}

// TestMetricsTextfileReflectsCheckerRun runs the checker once, records the
// outcome, and verifies the resulting textfile collector output carries
// every series a scrape would expect to find.
func TestMetricsTextfileReflectsCheckerRun(t *testing.T) {
	report, err := checker.Run(context.Background(),
		strings.NewReader(monitoringScript), strings.NewReader(monitoringLog),
		checker.Options{Logger: discardLogger()})
	require.NoError(t, err)
	require.True(t, report.Accepted)

	run := domain.RunSnapshot{
		Accepted:     report.Accepted,
		RuntimeSec:   report.RuntimeSec,
		WeightedWait: report.WeightedWait,
		EnergyWatt:   report.EnergyWatt,
	}
	metrics.RecordRun(run)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, metrics.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "tracecheck_runtime_seconds")
	assert.Contains(t, text, "tracecheck_weighted_wait_seconds")
	assert.Contains(t, text, "tracecheck_energy_watt")
	assert.Contains(t, text, "tracecheck_accepted 1")
}

// TestMetricsRecordCategoryTracksRejection runs a trace that violates the
// door-hold tolerance and checks the resulting error categories make it
// into the textfile's error counter series.
func TestMetricsRecordCategoryTracksRejection(t *testing.T) {
	const rejectScript = "[1.0]1-PRI-10-FROM-F1-TO-F2\n"
	const rejectLog = "[1.0]OPEN-F1-1\n[1.3]CLOSE-F1-1\n"

	report, err := checker.Run(context.Background(),
		strings.NewReader(rejectScript), strings.NewReader(rejectLog),
		checker.Options{Logger: discardLogger()})
	require.NoError(t, err)
	require.False(t, report.Accepted)
	require.NotEmpty(t, report.ByCategory)

	for category, count := range report.ByCategory {
		metrics.RecordCategory(category, count)
	}

	path := filepath.Join(t.TempDir(), "metrics_rejected.prom")
	require.NoError(t, metrics.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tracecheck_errors_total")
}
