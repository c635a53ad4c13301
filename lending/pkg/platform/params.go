package platform

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxBasisPoints is 100%.
const MaxBasisPoints = 10_000

// USDCDecimals is the precision of the loan currency mint.
const USDCDecimals = 6

// BasisPoints is a rate scaled by 100: 9000 is 90%.
type BasisPoints uint16

// Percent returns the rate as an exact percentage.
func (b BasisPoints) Percent() decimal.Decimal {
	return decimal.New(int64(b), -2)
}

// BasisPointsFromPercent converts a percentage back to basis points. The
// percentage must have at most two decimal places and lie in [0, 100].
func BasisPointsFromPercent(pct decimal.Decimal) (BasisPoints, error) {
	scaled := pct.Shift(2)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("percentage %s has more than two decimal places", pct)
	}
	if scaled.IsNegative() || scaled.GreaterThan(decimal.NewFromInt(MaxBasisPoints)) {
		return 0, fmt.Errorf("percentage %s out of range [0, 100]", pct)
	}
	return BasisPoints(scaled.IntPart()), nil
}

// Amount is a token quantity in the mint's smallest units.
type Amount uint64

// Units returns the amount in whole tokens for a mint of the given precision.
func (a Amount) Units(decimals uint8) decimal.Decimal {
	return decimal.NewFromUint64(uint64(a)).Shift(-int32(decimals))
}

// AmountFromUnits converts a whole-token quantity to smallest units.
func AmountFromUnits(units decimal.Decimal, decimals uint8) (Amount, error) {
	scaled := units.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", units, decimals)
	}
	if scaled.IsNegative() {
		return 0, fmt.Errorf("amount %s is negative", units)
	}
	n := scaled.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("amount %s overflows u64", units)
	}
	return Amount(n.Uint64()), nil
}

// Params is the parameter set written by the initialize instruction. Field
// order matches the instruction arguments.
type Params struct {
	MaxLTV              BasisPoints
	MinLoanAmount       Amount
	MaxLoanAmount       Amount
	OriginationFee      BasisPoints
	ServicingFee        BasisPoints
	MinInterestRate     BasisPoints
	DefaultInterestRate BasisPoints
	LateFeeRate         BasisPoints
	GracePeriodDays     uint8
}

func DefaultParams() Params {
	return Params{
		MaxLTV:              9000,
		MinLoanAmount:       1_000 * 1_000_000,
		MaxLoanAmount:       1_000_000 * 1_000_000,
		OriginationFee:      100,
		ServicingFee:        25,
		MinInterestRate:     800,
		DefaultInterestRate: 1000,
		LateFeeRate:         500,
		GracePeriodDays:     10,
	}
}

func (p Params) Validate() error {
	rates := []struct {
		name string
		v    BasisPoints
	}{
		{"max LTV", p.MaxLTV},
		{"origination fee", p.OriginationFee},
		{"servicing fee", p.ServicingFee},
		{"min interest rate", p.MinInterestRate},
		{"default interest rate", p.DefaultInterestRate},
		{"late fee rate", p.LateFeeRate},
	}
	var errs []error
	for _, r := range rates {
		if r.v > MaxBasisPoints {
			errs = append(errs, fmt.Errorf("%s %d exceeds %d basis points", r.name, r.v, MaxBasisPoints))
		}
	}
	if p.MinLoanAmount > p.MaxLoanAmount {
		errs = append(errs, fmt.Errorf("min loan amount %d exceeds max loan amount %d", p.MinLoanAmount, p.MaxLoanAmount))
	}
	return errors.Join(errs...)
}

// Args returns the instruction arguments in wire order.
func (p Params) Args() []any {
	return []any{
		uint16(p.MaxLTV),
		uint64(p.MinLoanAmount),
		uint64(p.MaxLoanAmount),
		uint16(p.OriginationFee),
		uint16(p.ServicingFee),
		uint16(p.MinInterestRate),
		uint16(p.DefaultInterestRate),
		uint16(p.LateFeeRate),
		p.GracePeriodDays,
	}
}
