package order

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"storefront/domain/shared"
)

const (
	StandardCarrier        = "Standard Shipping"
	StandardShippingMethod = "standard"
	trackingPrefix         = "TRK"
	minDeliveryDays        = 3
	maxDeliveryDays        = 5
)

// ShippingPolicy assigns tracking numbers and delivery estimates.
// Tracking numbers are "TRK" + last six digits of the unix-millis clock +
// three random digits; uniqueness is likely but not guaranteed.
type ShippingPolicy struct {
	clock func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewShippingPolicy(clock func() time.Time, rnd *rand.Rand) *ShippingPolicy {
	if clock == nil {
		clock = time.Now
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ShippingPolicy{clock: clock, rnd: rnd}
}

func (p *ShippingPolicy) intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Intn(n)
}

// TrackingNumber e.g. TRK482913057
func (p *ShippingPolicy) TrackingNumber() string {
	millis := p.clock().UnixMilli()
	return fmt.Sprintf("%s%06d%03d", trackingPrefix, millis%1_000_000, p.intn(1000))
}

// EstimatedDelivery now + 3..5 calendar days
func (p *ShippingPolicy) EstimatedDelivery(from time.Time) time.Time {
	days := minDeliveryDays + p.intn(maxDeliveryDays-minDeliveryDays+1)
	return from.AddDate(0, 0, days)
}

// Assign builds the shipping block for a new order.
func (p *ShippingPolicy) Assign(address Address, method string, cost shared.Money, at time.Time) Shipping {
	if method == "" {
		method = StandardShippingMethod
	}
	return Shipping{
		TrackingNumber:    p.TrackingNumber(),
		Carrier:           StandardCarrier,
		Method:            method,
		EstimatedDelivery: p.EstimatedDelivery(at),
		Cost:              cost,
		Address:           address,
	}
}
