package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeliveryCountsConcurrentUpdates(t *testing.T) {
	var d Delivery
	require.Equal(t, DeliveryCounts{}, d.Counts())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Ack()
			d.Nack()
		}()
	}
	wg.Wait()
	d.LocationError()

	require.Equal(t, DeliveryCounts{Acked: 50, Nacked: 50, LocationErrors: 1}, d.Counts())
}
