// Package ledger applies budget mutations to a user's snapshot and derives
// the totals shown in the overview. A Ledger wraps exactly one snapshot,
// owned by the request that loaded it; there is no shared process-wide state.
package ledger

import (
	"errors"
	"math"

	"budget-tracker/currency"
	"budget-tracker/models"
)

// Input currency side for amounts submitted by the user.
const (
	Primary   = "primary"
	Secondary = "secondary"
)

var (
	ErrEmptyName       = errors.New("name must not be empty")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidSide     = errors.New(`currency must be "primary" or "secondary"`)
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidTaxRate  = errors.New("tax rate must not be negative")
	ErrEmptyCurrency   = errors.New("currency code must not be empty")
)

type Ledger struct {
	snap *models.LedgerSnapshot
}

func New(snap *models.LedgerSnapshot) *Ledger {
	return &Ledger{snap: snap}
}

// toPrimary normalizes a user-submitted amount to the primary currency.
func (l *Ledger) toPrimary(amount float64, side string) (float64, error) {
	switch side {
	case Primary, "":
		return amount, nil
	case Secondary:
		if l.snap.ExchangeRate <= 0 {
			return 0, currency.ErrInvalidRate
		}
		return amount / l.snap.ExchangeRate, nil
	default:
		return 0, ErrInvalidSide
	}
}

// AddExpense records a spending entry. Secondary-currency input is preserved
// exactly and the primary amount derived from it; primary input derives the
// secondary amount. Either way the rate in effect now is stamped onto the
// record so the entry keeps displaying with its historical conversion.
func (l *Ledger) AddExpense(name string, amount float64, side string) error {
	if name == "" {
		return ErrEmptyName
	}
	if amount <= 0 || math.IsNaN(amount) {
		return ErrInvalidAmount
	}
	rate := l.snap.ExchangeRate

	var primary, secondary float64
	switch side {
	case Secondary:
		if rate <= 0 {
			return currency.ErrInvalidRate
		}
		secondary = amount
		primary = amount / rate
	case Primary, "":
		primary = amount
		secondary = currency.Convert(amount, rate)
	default:
		return ErrInvalidSide
	}

	l.snap.Expenses = append(l.snap.Expenses, models.Expense{
		Name:              name,
		Amount:            primary,
		AmountInSecondary: &secondary,
		ExchangeRate:      rate,
		PrimaryCurrency:   l.snap.PrimaryCurrency,
		SecondaryCurrency: l.snap.SecondaryCurrency,
	})
	return nil
}

// AddSavingsGoal records a savings goal in the primary currency. An invalid
// or missing current amount defaults to zero.
func (l *Ledger) AddSavingsGoal(name string, target, current float64, side string) error {
	if name == "" {
		return ErrEmptyName
	}
	if target <= 0 || math.IsNaN(target) {
		return ErrInvalidAmount
	}
	if current < 0 || math.IsNaN(current) {
		current = 0
	}
	target, err := l.toPrimary(target, side)
	if err != nil {
		return err
	}
	current, err = l.toPrimary(current, side)
	if err != nil {
		return err
	}
	l.snap.Savings = append(l.snap.Savings, models.SavingsGoal{
		Name:    name,
		Target:  target,
		Current: current,
	})
	return nil
}

// AddWishlistItem records a wishlist entry. When applyTax is set and the
// price was given pre-tax, the stored price is grossed up by the snapshot's
// tax rate; a post-tax price is stored unchanged.
func (l *Ledger) AddWishlistItem(name string, price float64, side string, applyTax, preTax bool) error {
	if name == "" {
		return ErrEmptyName
	}
	if price <= 0 || math.IsNaN(price) {
		return ErrInvalidAmount
	}
	price, err := l.toPrimary(price, side)
	if err != nil {
		return err
	}
	if applyTax && preTax {
		price = price * (1 + l.snap.TaxRate/100)
	}
	l.snap.Wishlist = append(l.snap.Wishlist, models.WishlistItem{
		Name:  name,
		Price: price,
	})
	return nil
}

func (l *Ledger) DeleteExpense(index int) error {
	if index < 0 || index >= len(l.snap.Expenses) {
		return ErrIndexOutOfRange
	}
	l.snap.Expenses = append(l.snap.Expenses[:index], l.snap.Expenses[index+1:]...)
	return nil
}

func (l *Ledger) DeleteSavingsGoal(index int) error {
	if index < 0 || index >= len(l.snap.Savings) {
		return ErrIndexOutOfRange
	}
	l.snap.Savings = append(l.snap.Savings[:index], l.snap.Savings[index+1:]...)
	return nil
}

func (l *Ledger) DeleteWishlistItem(index int) error {
	if index < 0 || index >= len(l.snap.Wishlist) {
		return ErrIndexOutOfRange
	}
	l.snap.Wishlist = append(l.snap.Wishlist[:index], l.snap.Wishlist[index+1:]...)
	return nil
}

// SetBudget replaces the monthly budget.
func (l *Ledger) SetBudget(amount float64) error {
	if amount <= 0 || math.IsNaN(amount) {
		return ErrInvalidAmount
	}
	l.snap.MonthlyBudget = amount
	return nil
}

// SetTaxRate replaces the wishlist tax rate (a percentage, zero allowed).
func (l *Ledger) SetTaxRate(rate float64) error {
	if rate < 0 || math.IsNaN(rate) {
		return ErrInvalidTaxRate
	}
	l.snap.TaxRate = rate
	return nil
}

// SetExchangeRate is the explicit user edit of the rate; the rate updater
// writes through currency.Pair instead.
func (l *Ledger) SetExchangeRate(rate float64) error {
	pair := currency.Pair{
		Primary:   l.snap.PrimaryCurrency,
		Secondary: l.snap.SecondaryCurrency,
		Rate:      l.snap.ExchangeRate,
	}
	if err := pair.SetRate(rate); err != nil {
		return err
	}
	l.snap.ExchangeRate = pair.Rate
	return nil
}

// SetCurrencies changes the tracked pair and invalidates the rate freshness
// stamp so the next refresh fetches immediately. An empty argument keeps the
// current code for that side.
func (l *Ledger) SetCurrencies(primary, secondary string) error {
	if primary == "" {
		primary = l.snap.PrimaryCurrency
	}
	if secondary == "" {
		secondary = l.snap.SecondaryCurrency
	}
	if primary == "" || secondary == "" {
		return ErrEmptyCurrency
	}
	l.snap.PrimaryCurrency = primary
	l.snap.SecondaryCurrency = secondary
	l.snap.LastRateUpdate = nil
	return nil
}

// Totals recomputes the budget summary from scratch on every call. The
// collections are small enough that caching would buy nothing.
func (l *Ledger) Totals() models.Totals {
	var spent, wishlist float64
	for _, e := range l.snap.Expenses {
		spent += e.Amount
	}
	for _, w := range l.snap.Wishlist {
		wishlist += w.Price
	}
	remaining := l.snap.MonthlyBudget - spent
	return models.Totals{
		Spent:         spent,
		Remaining:     remaining,
		WishlistTotal: wishlist,
		AfterWishlist: remaining - wishlist,
	}
}

// SecondaryAmount returns the display value of an expense in the secondary
// currency. Rate-stamped records use the amount frozen at entry time; legacy
// records fall back to converting with the live rate. Both paths must stay:
// previously persisted data has no stamp.
func (l *Ledger) SecondaryAmount(e models.Expense) float64 {
	if !e.Legacy() {
		return *e.AmountInSecondary
	}
	return currency.Convert(e.Amount, l.snap.ExchangeRate)
}

// Progress returns a goal's completion percentage, unclamped.
func Progress(g models.SavingsGoal) float64 {
	if g.Target <= 0 {
		return 0
	}
	return g.Current / g.Target * 100
}

// ClampedProgress clamps Progress to [0,100] for rendering; the underlying
// values stay unclamped.
func ClampedProgress(g models.SavingsGoal) float64 {
	p := Progress(g)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
