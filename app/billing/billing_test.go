package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-go/app/config"
	"studio-go/app/models"
)

func TestDiscount(t *testing.T) {
	tests := []struct {
		name   string
		price  int64
		coupon models.Coupon
		want   int64
	}{
		{"percent", 4900, models.Coupon{Kind: models.CouponPercent, Value: 10}, 490},
		{"percent rounds half up", 999, models.Coupon{Kind: models.CouponPercent, Value: 50}, 500},
		{"percent rounds down", 1001, models.Coupon{Kind: models.CouponPercent, Value: 10}, 100},
		{"full percent", 4900, models.Coupon{Kind: models.CouponPercent, Value: 100}, 4900},
		{"fixed", 4900, models.Coupon{Kind: models.CouponFixed, Value: 1000}, 1000},
		{"fixed capped at price", 500, models.Coupon{Kind: models.CouponFixed, Value: 1000}, 500},
		{"unknown kind", 500, models.Coupon{Kind: "bogus", Value: 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Discount(tt.price, tt.coupon))
		})
	}
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	expiry := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c, err := NewCatalog(config.BillingConfig{
		Currency: "USD",
		Plans: []models.Plan{
			{Code: "basic", Name: "Basic", Price: 1900},
			{Code: "pro", Name: "Pro", Price: 4900},
		},
		Coupons: []models.Coupon{
			{Code: "Half", Kind: models.CouponPercent, Value: 50},
			{Code: "TENOFF", Kind: models.CouponFixed, Value: 1000, Plans: []string{"pro"}},
			{Code: "SPRING", Kind: models.CouponPercent, Value: 20, ExpiresAt: &expiry},
		},
	})
	require.NoError(t, err)
	return c
}

func TestCatalog_Quote(t *testing.T) {
	c := testCatalog(t)
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	q, err := c.Quote("pro", "", at)
	require.NoError(t, err)
	assert.Equal(t, int64(4900), q.Total)
	assert.Equal(t, "USD", q.Currency)
	assert.Contains(t, q.Formatted, "49.00")

	q, err = c.Quote("pro", "half", at)
	require.NoError(t, err)
	assert.Equal(t, "Half", q.Coupon)
	assert.Equal(t, int64(2450), q.Discount)
	assert.Equal(t, int64(2450), q.Total)
	assert.Contains(t, q.Formatted, "24.50")

	q, err = c.Quote("pro", "TENOFF", at)
	require.NoError(t, err)
	assert.Equal(t, int64(3900), q.Total)

	q, err = c.Quote("basic", "SPRING", at)
	require.NoError(t, err)
	assert.Equal(t, int64(380), q.Discount)
}

func TestCatalog_QuoteErrors(t *testing.T) {
	c := testCatalog(t)
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := c.Quote("enterprise", "", at)
	assert.ErrorIs(t, err, ErrUnknownPlan)

	_, err = c.Quote("pro", "NOPE", at)
	assert.ErrorIs(t, err, ErrUnknownCoupon)

	_, err = c.Quote("basic", "TENOFF", at)
	assert.ErrorIs(t, err, ErrCouponNotApplicable)

	_, err = c.Quote("pro", "SPRING", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrCouponExpired)
}

func TestNewCatalog_BadCurrency(t *testing.T) {
	_, err := NewCatalog(config.BillingConfig{Currency: "XX"})
	assert.Error(t, err)
}
