package telemetry_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"netauth/internal/telemetry"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := telemetry.NewLogger("info", telemetry.FormatJSON, &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Debug().Msg("hidden")
	log.Info().Str("conn", "c1").Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"conn":"c1"`) {
		t.Fatalf("unexpected output: %s", out)
	}

	if _, err := telemetry.NewLogger("loud", telemetry.FormatJSON, &buf); err == nil {
		t.Fatal("accepted unknown level")
	}
	if _, err := telemetry.NewLogger("info", "xml", &buf); err == nil {
		t.Fatal("accepted unknown format")
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(reg)
	m.Handshake(telemetry.ResultSuccess)
	m.Handshake(telemetry.ResultSuccess)
	m.Violation("out_of_order")
	m.SessionOpened()

	if got := testutil.ToFloat64(m.Handshakes.WithLabelValues(telemetry.ResultSuccess)); got != 2 {
		t.Fatalf("handshakes = %v", got)
	}
	if got := testutil.ToFloat64(m.Violations.WithLabelValues("out_of_order")); got != 1 {
		t.Fatalf("violations = %v", got)
	}
	if got := testutil.ToFloat64(m.Sessions); got != 1 {
		t.Fatalf("sessions = %v", got)
	}

	var none *telemetry.Metrics
	none.Handshake(telemetry.ResultError)
	none.SessionClosed()
}
