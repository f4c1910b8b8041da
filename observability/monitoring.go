// Package observability aggregates relay counters for periodic logging.
package observability

import "sync/atomic"

// Stats is a point-in-time snapshot of the relay counters.
type Stats struct {
	DeliveredEvents uint64 `json:"delivered_events"`
	DroppedEvents   uint64 `json:"dropped_events"`
	GatewayFailures uint64 `json:"gateway_failures"`
	Connections     int64  `json:"connections"`
}

// Monitoring holds atomic counters, cheap enough to bump on every delivery.
type Monitoring struct {
	deliveredEvents uint64
	droppedEvents   uint64
	gatewayFailures uint64
	connections     int64
}

func NewMonitoring() *Monitoring {
	return &Monitoring{}
}

func (m *Monitoring) IncrDeliveredEvent() { atomic.AddUint64(&m.deliveredEvents, 1) }
func (m *Monitoring) IncrDroppedEvent()   { atomic.AddUint64(&m.droppedEvents, 1) }
func (m *Monitoring) IncrGatewayFailure() { atomic.AddUint64(&m.gatewayFailures, 1) }
func (m *Monitoring) ConnOpened()         { atomic.AddInt64(&m.connections, 1) }
func (m *Monitoring) ConnClosed()         { atomic.AddInt64(&m.connections, -1) }

func (m *Monitoring) GetLatest() Stats {
	return Stats{
		DeliveredEvents: atomic.LoadUint64(&m.deliveredEvents),
		DroppedEvents:   atomic.LoadUint64(&m.droppedEvents),
		GatewayFailures: atomic.LoadUint64(&m.gatewayFailures),
		Connections:     atomic.LoadInt64(&m.connections),
	}
}
