// Package metrics provides functions to record metrics data.
// It is a very thin layer that writes logs to local CSV files,
// for simple setups without a metrics backend.
package metrics

import (
	"encoding/csv"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultMetricsFileIn  = "cable_metrics_in.csv"
	DefaultMetricsFileOut = "cable_metrics_out.csv"
)

var (
	muIn  sync.Mutex
	muOut sync.Mutex
)

// CountInboundPacket counts packets received from the server as a metric.
func CountInboundPacket(l zerolog.Logger, t time.Time, packetType string) {
	muIn.Lock()
	defer muIn.Unlock()

	record := []string{t.Format(time.RFC3339), packetType}
	writeLineToFile(&l, DefaultMetricsFileIn, record)
}

// CountOutboundPacket counts packets sent to the server as a metric,
// along with the send error, if there was one.
func CountOutboundPacket(t time.Time, packetType string, err error) {
	muOut.Lock()
	defer muOut.Unlock()

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	record := []string{t.Format(time.RFC3339), packetType, errMsg}
	writeLineToFile(nil, DefaultMetricsFileOut, record)
}

func writeLineToFile(l *zerolog.Logger, filename string, record []string) {
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		if l != nil {
			l.Error().Err(err).Msg("failed to open metrics file")
		}
		return
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(record); err != nil {
		if l != nil {
			l.Error().Err(err).Msg("failed to write metrics file")
		}
	}
	w.Flush()
}
