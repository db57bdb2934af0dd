package types

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
)

// ShareScale is the number of share units minted per principal unit into an
// empty pool. Share units carry the fixed-point precision of the ledger, so
// the rate is a plain integer quotient and minting at the current rate is exact.
var ShareScale = math.NewInt(1_000_000_000_000_000) // 1e15

// MaxUint128 bounds every total, record and rate kept by the ledger
var MaxUint128 = math.NewIntFromBigInt(
	new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1)),
)

// RateOf derives the exchange rate (share units per principal unit) from the
// pool totals. An empty pool trades at ShareScale.
func RateOf(shareTotal, principalTotal math.Int) (math.Int, error) {
	if shareTotal.IsZero() {
		return ShareScale, nil
	}
	rate, err := CheckedQuo(shareTotal, principalTotal)
	if err != nil {
		return math.Int{}, errorsmod.Wrapf(err, "rate of %s shares over %s principal", shareTotal, principalTotal)
	}
	if rate.IsZero() {
		return math.Int{}, errorsmod.Wrapf(ErrUnderflow, "rate of %s shares over %s principal is zero", shareTotal, principalTotal)
	}
	return rate, nil
}

// SharesFor converts principal to share units against the pool totals,
// rounding down. An empty pool mints ShareScale units per principal unit.
func SharesFor(principal, shareTotal, principalTotal math.Int) (math.Int, error) {
	if shareTotal.IsZero() {
		return CheckedMul(principal, ShareScale)
	}
	return MulDiv(principal, shareTotal, principalTotal)
}

// PrincipalFor converts share units to principal against the pool totals,
// rounding down. The result never exceeds principalTotal for shares within
// shareTotal.
func PrincipalFor(shares, shareTotal, principalTotal math.Int) (math.Int, error) {
	if shareTotal.IsZero() {
		return CheckedQuo(shares, ShareScale)
	}
	return MulDiv(shares, principalTotal, shareTotal)
}

// MulDiv returns a*b/c rounded down. The product of two u128 operands fits in
// math.Int's 256 bits, so nothing is truncated before the division.
func MulDiv(a, b, c math.Int) (math.Int, error) {
	if err := checkUint128(a, b, c); err != nil {
		return math.Int{}, err
	}
	if c.IsZero() {
		return math.Int{}, errorsmod.Wrapf(ErrDivisionByZero, "%s * %s / 0", a, b)
	}
	return bound(a.Mul(b).Quo(c))
}

// CheckedAdd returns a+b, failing if the sum leaves the u128 range
func CheckedAdd(a, b math.Int) (math.Int, error) {
	if err := checkUint128(a, b); err != nil {
		return math.Int{}, err
	}
	return bound(a.Add(b))
}

// CheckedSub returns a-b, failing instead of going negative
func CheckedSub(a, b math.Int) (math.Int, error) {
	if err := checkUint128(a, b); err != nil {
		return math.Int{}, err
	}
	if a.LT(b) {
		return math.Int{}, errorsmod.Wrapf(ErrUnderflow, "%s - %s", a, b)
	}
	return a.Sub(b), nil
}

// CheckedMul returns a*b, failing if the product leaves the u128 range.
// Both operands are u128 so the intermediate fits in math.Int's 256 bits.
func CheckedMul(a, b math.Int) (math.Int, error) {
	if err := checkUint128(a, b); err != nil {
		return math.Int{}, err
	}
	return bound(a.Mul(b))
}

// CheckedQuo returns a/b rounded down
func CheckedQuo(a, b math.Int) (math.Int, error) {
	if err := checkUint128(a, b); err != nil {
		return math.Int{}, err
	}
	if b.IsZero() {
		return math.Int{}, errorsmod.Wrapf(ErrDivisionByZero, "%s / 0", a)
	}
	return a.Quo(b), nil
}

func checkUint128(values ...math.Int) error {
	for _, v := range values {
		if v.IsNil() {
			return errorsmod.Wrap(ErrUnderflow, "nil amount")
		}
		if _, err := bound(v); err != nil {
			return err
		}
	}
	return nil
}

func bound(v math.Int) (math.Int, error) {
	if v.IsNegative() {
		return math.Int{}, errorsmod.Wrapf(ErrUnderflow, "%s is negative", v)
	}
	if v.GT(MaxUint128) {
		return math.Int{}, errorsmod.Wrapf(ErrOverflow, "%s exceeds 128 bits", v)
	}
	return v, nil
}
