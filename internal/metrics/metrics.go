// Package metrics declares the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OTPIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "otp_issued_total",
		Help:      "One-time codes issued, by purpose.",
	}, []string{"purpose"})

	OTPVerifyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "otp_verify_total",
		Help:      "One-time code verification outcomes, by purpose and result.",
	}, []string{"purpose", "result"})

	CouponApplyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "coupon_apply_total",
		Help:      "Coupon applications, by result.",
	}, []string{"result"})

	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "orders_created_total",
		Help:      "Orders committed through checkout.",
	})

	EmailFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "email_failures_total",
		Help:      "Outbound emails that failed to send, by kind.",
	}, []string{"kind"})

	RateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the request limiter, by route.",
	}, []string{"route"})
)
