package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reason explains why a wallet is not eligible for a reward
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonDailyLimitReached   Reason = "DailyLimitReached"
	ReasonTooSoon             Reason = "TooSoon"
	ReasonInsufficientBalance Reason = "InsufficientBalance"
	ReasonUnknown             Reason = "Unknown"
)

// Eligibility is the decision of the eligibility engine for one instant
type Eligibility struct {
	Eligible     bool
	Reason       Reason
	Message      string
	NextEligible *time.Time
	Remaining    decimal.Decimal
	DemoMode     bool
}

// Eligible builds a positive decision.
func Eligible(remaining decimal.Decimal, demo bool) Eligibility {
	return Eligibility{Eligible: true, Remaining: remaining, DemoMode: demo}
}

// Ineligible builds a negative decision.
func Ineligible(reason Reason, message string, next *time.Time, demo bool) Eligibility {
	return Eligibility{Reason: reason, Message: message, NextEligible: next, DemoMode: demo}
}
