package types

import (
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
)

// Pool is the global reward ledger. ShareTotal is the sum of every live entry's
// ShareOwned. PrincipalTotal is the sum of every live entry's PrincipalOwned
// plus fee income not yet claimed. Rate is derived from both and never stale.
type Pool struct {
	ShareTotal     math.Int `json:"share_total"`
	PrincipalTotal math.Int `json:"principal_total"`
	Rate           math.Int `json:"rate"`
}

// NewPool creates an empty pool trading at ShareScale
func NewPool() *Pool {
	return &Pool{
		ShareTotal:     math.ZeroInt(),
		PrincipalTotal: math.ZeroInt(),
		Rate:           ShareScale,
	}
}

// ToShares converts principal to share units at the current exchange rate.
// It works from the totals rather than the floored Rate so the entrant's
// shares are never worth more than what they put in.
func (p *Pool) ToShares(principal math.Int) (math.Int, error) {
	return SharesFor(principal, p.ShareTotal, p.PrincipalTotal)
}

// ToPrincipal converts share units to their current principal value. Values
// are proportional to the totals, so the holders together can never be owed
// more than PrincipalTotal.
func (p *Pool) ToPrincipal(shares math.Int) (math.Int, error) {
	return PrincipalFor(shares, p.ShareTotal, p.PrincipalTotal)
}

// RecomputeRate refreshes the cached rate from the totals
func (p *Pool) RecomputeRate() error {
	rate, err := RateOf(p.ShareTotal, p.PrincipalTotal)
	if err != nil {
		return err
	}
	p.Rate = rate
	return nil
}

// Mint adds an entry of the given principal, minted at the rate prevailing
// before the entry, and returns the minted shares. The pool is left untouched
// on error.
func (p *Pool) Mint(principal math.Int) (math.Int, error) {
	shares, err := p.ToShares(principal)
	if err != nil {
		return math.Int{}, err
	}
	next := *p
	if next.ShareTotal, err = CheckedAdd(p.ShareTotal, shares); err != nil {
		return math.Int{}, err
	}
	if next.PrincipalTotal, err = CheckedAdd(p.PrincipalTotal, principal); err != nil {
		return math.Int{}, err
	}
	if err := next.RecomputeRate(); err != nil {
		return math.Int{}, err
	}
	*p = next
	return shares, nil
}

// Deposit adds fee income without minting shares, lowering the rate
func (p *Pool) Deposit(amount math.Int) error {
	next := *p
	var err error
	if next.PrincipalTotal, err = CheckedAdd(p.PrincipalTotal, amount); err != nil {
		return err
	}
	if err := next.RecomputeRate(); err != nil {
		return err
	}
	*p = next
	return nil
}

// Burn removes shares together with the given principal. Claims remove the
// entry's current value, or its principal if rounding left it worth less;
// closes remove only its entered principal and leave the accrued excess to
// the remaining holders.
func (p *Pool) Burn(shares, principal math.Int) error {
	next := *p
	var err error
	if next.ShareTotal, err = CheckedSub(p.ShareTotal, shares); err != nil {
		return err
	}
	if next.PrincipalTotal, err = CheckedSub(p.PrincipalTotal, principal); err != nil {
		return err
	}
	if err := next.RecomputeRate(); err != nil {
		return err
	}
	*p = next
	return nil
}

// Validate checks that the totals are in range and the cached rate matches them
func (p *Pool) Validate() error {
	if err := checkUint128(p.ShareTotal, p.PrincipalTotal, p.Rate); err != nil {
		return err
	}
	rate, err := RateOf(p.ShareTotal, p.PrincipalTotal)
	if err != nil {
		return err
	}
	if !rate.Equal(p.Rate) {
		return errorsmod.Wrapf(ErrInvalidGenesis, "stale rate %s, totals give %s", p.Rate, rate)
	}
	return nil
}
