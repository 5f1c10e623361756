/*
errors.go - Error types for the cost-share engine

PURPOSE:
  The engine has a single error class: invalid input. Negative money,
  coinsurance outside [0,1], months outside 1..12 and malformed items are
  rejected, never clamped. Clamping remaining balances at zero after a
  subtraction is a normal step and not an error.

USAGE:
  if errors.Is(err, costshare.ErrInvalidInput) {
      // surface to the operator as a 400
  }

  var inv *costshare.InvalidInputError
  if errors.As(err, &inv) {
      fmt.Println(inv.Field)
  }
*/
package costshare

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrInvalidInput is returned for any value outside its allowed domain.
	ErrInvalidInput = errors.New("invalid input")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InvalidInputError names the offending field.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s=%s: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// InvalidInput builds an *InvalidInputError. Callers outside the engine use
// it to report request fields with the same error class.
func InvalidInput(field, value, reason string) error {
	return &InvalidInputError{Field: field, Value: value, Reason: reason}
}

func invalid(field, value, reason string) error {
	return InvalidInput(field, value, reason)
}

// =============================================================================
// VALIDATION
// =============================================================================

func requireNonNegative(field string, m Money) error {
	if m.IsNegative() {
		return invalid(field, m.String(), "must not be negative")
	}
	return nil
}

func requireRate(field string, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return invalid(field, rate.String(), "must be between 0 and 1")
	}
	return nil
}

func requireMonth(field string, m time.Month) error {
	if m < time.January || m > time.December {
		return invalid(field, fmt.Sprint(int(m)), "must be a month between 1 and 12")
	}
	return nil
}

// Validate checks every plan field.
func (p PlanParameters) Validate() error {
	for _, f := range []struct {
		name  string
		value Money
	}{
		{"deductible_total", p.DeductibleTotal},
		{"deductible_met", p.DeductibleMet},
		{"oop_max", p.OOPMax},
		{"oop_met", p.OOPMet},
	} {
		if err := requireNonNegative(f.name, f.value); err != nil {
			return err
		}
	}
	if err := requireRate("coinsurance_rate", p.CoinsuranceRate); err != nil {
		return err
	}
	if err := requireMonth("effective_month", p.EffectiveMonth); err != nil {
		return err
	}
	return requireMonth("reset_month", p.ResetMonth)
}

// Validate checks an item's amount, kind and repeat count.
func (i BillableItem) Validate() error {
	if err := requireNonNegative("allowed["+i.Code+"]", i.Allowed); err != nil {
		return err
	}
	switch i.Kind {
	case KindOneTime:
		return nil
	case KindRecurring:
		if i.RepeatCount < 1 {
			return invalid("repeat_count["+i.Code+"]", fmt.Sprint(i.RepeatCount), "recurring items need at least one period")
		}
		return nil
	default:
		return invalid("kind["+i.Code+"]", string(i.Kind), "must be one-time or recurring")
	}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
