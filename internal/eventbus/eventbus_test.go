package eventbus

import (
	"context"
	"testing"

	"github.com/cjkrolak/thermostat-supervisor/internal/driver"
)

func TestNewWithNoBrokersReturnsNil(t *testing.T) {
	if p := New(nil, "thermostat.observations."); p != nil {
		t.Errorf("expected nil Publisher when no brokers configured")
	}
}

func TestNilPublisherPublishIsNoOp(t *testing.T) {
	var p *Publisher
	if err := p.Publish(context.Background(), driver.Observation{ZoneID: "0"}); err != nil {
		t.Errorf("nil Publisher.Publish should be a no-op, got %v", err)
	}
}
