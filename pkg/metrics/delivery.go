package metrics

import "sync/atomic"

// Delivery counts outbound message outcomes and failed location requests.
// The zero value is ready to use.
type Delivery struct {
	acked          atomic.Int64
	nacked         atomic.Int64
	locationErrors atomic.Int64
}

// DeliveryCounts is a point-in-time copy of Delivery.
type DeliveryCounts struct {
	Acked          int64 `json:"acked"`
	Nacked         int64 `json:"nacked"`
	LocationErrors int64 `json:"locationErrors"`
}

func (d *Delivery) Ack()           { d.acked.Add(1) }
func (d *Delivery) Nack()          { d.nacked.Add(1) }
func (d *Delivery) LocationError() { d.locationErrors.Add(1) }

// Counts returns the current totals.
func (d *Delivery) Counts() DeliveryCounts {
	return DeliveryCounts{
		Acked:          d.acked.Load(),
		Nacked:         d.nacked.Load(),
		LocationErrors: d.locationErrors.Load(),
	}
}
