package httpstatus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cjkrolak/thermostat-supervisor/internal/driver"
)

func TestHealthzReturnsOK(t *testing.T) {
	s := New("127.0.0.1:0", prometheus.NewRegistry(), nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.handleHealthz(rr, req)
	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Errorf("got %d %q, want 200 OK", rr.Code, rr.Body.String())
	}
}

func TestStatuszReportsRecordedObservations(t *testing.T) {
	s := New("127.0.0.1:0", prometheus.NewRegistry(), nil)
	s.RecordObservation(driver.Observation{ZoneID: "0", DisplayTemp: 71.5})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/statusz", nil)
	s.handleStatusz(rr, req)

	var snapshot map[string]driver.Observation
	if err := json.Unmarshal(rr.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snapshot["0"].DisplayTemp != 71.5 {
		t.Errorf("got %v, want 71.5", snapshot["0"].DisplayTemp)
	}
}

func TestStartAndStopLifecycle(t *testing.T) {
	s := New("127.0.0.1:0", prometheus.NewRegistry(), nil)
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("start returned error after stop: %v", err)
	}
}
