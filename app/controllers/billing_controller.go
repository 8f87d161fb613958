package controllers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"studio-go/app/billing"
)

// BillingController handles subscription price quotes.
type BillingController struct {
	Catalog *billing.Catalog
	logger  *zap.Logger
	now     func() time.Time
}

// NewBillingController creates a new BillingController.
func NewBillingController(catalog *billing.Catalog, logger *zap.Logger) *BillingController {
	return &BillingController{Catalog: catalog, logger: logger, now: time.Now}
}

// Quote handles POST /billing/quote.
func (c *BillingController) Quote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan   string `json:"plan"`
		Coupon string `json:"coupon"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadPayload(w)
		return
	}

	quote, err := c.Catalog.Quote(req.Plan, req.Coupon, c.now())
	if err != nil {
		writeError(w, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}
