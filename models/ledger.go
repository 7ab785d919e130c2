package models

// ============================================================================
// LEDGER SNAPSHOT
// ============================================================================

// LedgerSnapshot is the full serializable state of one user's budget:
// currency settings, monthly budget, expenses, savings goals and wishlist.
// All raw amounts are stored in the primary currency; the secondary currency
// is derived for display. Field names match the snapshot format persisted by
// earlier versions of the tracker.
type LedgerSnapshot struct {
	PrimaryCurrency   string         `json:"primaryCurrency"`
	SecondaryCurrency string         `json:"secondaryCurrency"`
	ExchangeRate      float64        `json:"exchangeRate"`
	TaxRate           float64        `json:"taxRate"`
	MonthlyBudget     float64        `json:"monthlyBudget"`
	Expenses          []Expense      `json:"expenses"`
	Savings           []SavingsGoal  `json:"savings"`
	Wishlist          []WishlistItem `json:"wishlist"`
	LastRateUpdate    *int64         `json:"lastRateUpdate"` // unix ms, null until the first fetch
}

// DefaultSnapshot is the ledger a freshly registered user starts with.
func DefaultSnapshot() LedgerSnapshot {
	return LedgerSnapshot{
		PrimaryCurrency:   "CNY",
		SecondaryCurrency: "USD",
		ExchangeRate:      7.2,
		TaxRate:           13,
		MonthlyBudget:     0,
		Expenses:          []Expense{},
		Savings:           []SavingsGoal{},
		Wishlist:          []WishlistItem{},
		LastRateUpdate:    nil,
	}
}

// Expense is a single spending record. Amount is always in the primary
// currency. AmountInSecondary and ExchangeRate freeze the conversion in
// effect when the expense was recorded; records written before rate stamping
// existed lack both fields and are converted with the live rate instead.
type Expense struct {
	Name              string   `json:"name"`
	Amount            float64  `json:"amount"`
	AmountInSecondary *float64 `json:"amountInSecondary,omitempty"`
	ExchangeRate      float64  `json:"exchangeRate,omitempty"`
	PrimaryCurrency   string   `json:"primaryCurrency,omitempty"`
	SecondaryCurrency string   `json:"secondaryCurrency,omitempty"`
}

// Legacy reports whether the expense predates rate stamping.
func (e Expense) Legacy() bool {
	return e.AmountInSecondary == nil
}

type SavingsGoal struct {
	Name    string  `json:"name"`
	Target  float64 `json:"target"`
	Current float64 `json:"current"`
}

type WishlistItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Totals is the budget summary derived from a snapshot. Everything is in the
// primary currency.
type Totals struct {
	Spent         float64 `json:"spent"`
	Remaining     float64 `json:"remaining"`
	WishlistTotal float64 `json:"wishlistTotal"`
	AfterWishlist float64 `json:"afterWishlist"`
}

// ============================================================================
// LEDGER REQUESTS
// ============================================================================

type AddExpenseRequest struct {
	Name     string  `json:"name" binding:"required"`
	Amount   float64 `json:"amount" binding:"required"`
	Currency string  `json:"currency" binding:"omitempty,oneof=primary secondary"`
}

type AddSavingsGoalRequest struct {
	Name     string  `json:"name" binding:"required"`
	Target   float64 `json:"target" binding:"required"`
	Current  float64 `json:"current"`
	Currency string  `json:"currency" binding:"omitempty,oneof=primary secondary"`
}

type AddWishlistItemRequest struct {
	Name      string  `json:"name" binding:"required"`
	Price     float64 `json:"price" binding:"required"`
	Currency  string  `json:"currency" binding:"omitempty,oneof=primary secondary"`
	ApplyTax  bool    `json:"applyTax"`
	TaxTiming string  `json:"taxTiming" binding:"omitempty,oneof=pre-tax post-tax"`
}

type SetBudgetRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

type UpdateSettingsRequest struct {
	PrimaryCurrency   string   `json:"primaryCurrency"`
	SecondaryCurrency string   `json:"secondaryCurrency"`
	TaxRate           *float64 `json:"taxRate"`
	ExchangeRate      *float64 `json:"exchangeRate"`
}
