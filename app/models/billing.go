package models

import "time"

// CouponKind selects how a coupon discounts a price.
type CouponKind string

const (
	CouponPercent CouponKind = "percent"
	CouponFixed   CouponKind = "fixed"
)

// Plan is a subscription plan. Prices are in minor currency units.
type Plan struct {
	Code  string `json:"code" yaml:"code"`
	Name  string `json:"name" yaml:"name"`
	Price int64  `json:"price" yaml:"price"`
}

// Coupon discounts a plan price. Value is a percentage for percent coupons
// and minor units for fixed ones.
type Coupon struct {
	Code      string     `json:"code" yaml:"code"`
	Kind      CouponKind `json:"kind" yaml:"kind"`
	Value     int64      `json:"value" yaml:"value"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" yaml:"expires_at"`
	Plans     []string   `json:"plans,omitempty" yaml:"plans"`
}

// Quote is the priced result for a plan and optional coupon.
type Quote struct {
	Plan      string `json:"plan"`
	Coupon    string `json:"coupon,omitempty"`
	Currency  string `json:"currency"`
	Subtotal  int64  `json:"subtotal"`
	Discount  int64  `json:"discount"`
	Total     int64  `json:"total"`
	Formatted string `json:"formatted"`
}
