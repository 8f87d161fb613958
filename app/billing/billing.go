// Package billing prices subscription plans with optional coupons. The
// payment gateway itself lives outside this service.
package billing

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"studio-go/app/config"
	"studio-go/app/models"
)

var (
	// ErrUnknownPlan indicates the plan code is not configured.
	ErrUnknownPlan = errors.New("unknown plan")

	// ErrUnknownCoupon indicates the coupon code is not configured.
	ErrUnknownCoupon = errors.New("unknown coupon")

	// ErrCouponExpired indicates the coupon is past its expiry.
	ErrCouponExpired = errors.New("coupon expired")

	// ErrCouponNotApplicable indicates the coupon is restricted to other plans.
	ErrCouponNotApplicable = errors.New("coupon not applicable to plan")
)

// Catalog holds the configured plans and coupons.
type Catalog struct {
	unit    currency.Unit
	plans   map[string]models.Plan
	coupons map[string]models.Coupon
	printer *message.Printer
}

// NewCatalog builds a catalog from the billing settings. Coupon codes are
// matched case-insensitively.
func NewCatalog(cfg config.BillingConfig) (*Catalog, error) {
	unit, err := currency.ParseISO(cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("billing currency %q: %w", cfg.Currency, err)
	}
	c := &Catalog{
		unit:    unit,
		plans:   make(map[string]models.Plan, len(cfg.Plans)),
		coupons: make(map[string]models.Coupon, len(cfg.Coupons)),
		printer: message.NewPrinter(language.English),
	}
	for _, p := range cfg.Plans {
		c.plans[p.Code] = p
	}
	for _, cp := range cfg.Coupons {
		c.coupons[strings.ToUpper(cp.Code)] = cp
	}
	return c, nil
}

// Discount returns the amount a coupon takes off price. Percentages round
// half up and no discount exceeds the price.
func Discount(price int64, coupon models.Coupon) int64 {
	var d int64
	switch coupon.Kind {
	case models.CouponPercent:
		d = (price*coupon.Value + 50) / 100
	case models.CouponFixed:
		d = coupon.Value
	}
	return max(0, min(d, price))
}

// Quote prices plan with the optional coupon as of at.
func (c *Catalog) Quote(planCode, couponCode string, at time.Time) (*models.Quote, error) {
	plan, ok := c.plans[planCode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, planCode)
	}

	q := &models.Quote{
		Plan:     plan.Code,
		Currency: c.unit.String(),
		Subtotal: plan.Price,
	}

	if couponCode = strings.TrimSpace(couponCode); couponCode != "" {
		coupon, ok := c.coupons[strings.ToUpper(couponCode)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCoupon, couponCode)
		}
		if coupon.ExpiresAt != nil && !at.Before(*coupon.ExpiresAt) {
			return nil, fmt.Errorf("%w: %s", ErrCouponExpired, coupon.Code)
		}
		if len(coupon.Plans) > 0 && !slices.Contains(coupon.Plans, plan.Code) {
			return nil, fmt.Errorf("%w: %s", ErrCouponNotApplicable, coupon.Code)
		}
		q.Coupon = coupon.Code
		q.Discount = Discount(plan.Price, coupon)
	}

	q.Total = q.Subtotal - q.Discount
	q.Formatted = c.format(q.Total)
	return q, nil
}

func (c *Catalog) format(minor int64) string {
	scale, _ := currency.Standard.Rounding(c.unit)
	amount := float64(minor) / math.Pow10(scale)
	return c.printer.Sprint(currency.Symbol(c.unit.Amount(amount)))
}
