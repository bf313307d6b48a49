package core

import "slices"

type (
	Direction         string
	ExpenseType       string
	PaymentMethod     string
	RecurrencePattern string
	Role              string
)

const (
	Income  Direction = "Income"
	Expense Direction = "Expense"
)

const (
	Essential          ExpenseType = "Essential"
	SavingsInvestments ExpenseType = "Savings & Investments"
	DebtRepayment      ExpenseType = "Debt Repayment"
	NonEssential       ExpenseType = "Non-Essential"
)

const (
	Cash         PaymentMethod = "Cash"
	CreditCard   PaymentMethod = "Credit Card"
	DebitCard    PaymentMethod = "Debit Card"
	BankTransfer PaymentMethod = "Bank Transfer"
	OtherMethod  PaymentMethod = "Other"
)

const (
	Daily   RecurrencePattern = "Daily"
	Weekly  RecurrencePattern = "Weekly"
	Monthly RecurrencePattern = "Monthly"
)

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Transaction category vocabularies, keyed by direction.
var (
	ExpenseCategories = []string{
		"Housing", "Utilities", "Groceries", "Healthcare",
		"Emergency Fund", "Retirement", "Investments",
		"Credit Card", "Loan Repayment",
		"Dining Out", "Shopping", "Entertainment", "Travel",
		"Other",
	}
	IncomeCategories = []string{"Salary", "Freelance", "Investments", "Other"}
)

func (d Direction) Valid() bool {
	return d == Income || d == Expense
}

func (t ExpenseType) Valid() bool {
	switch t {
	case Essential, SavingsInvestments, DebtRepayment, NonEssential:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case Cash, CreditCard, DebitCard, BankTransfer, OtherMethod:
		return true
	}
	return false
}

func (p RecurrencePattern) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// CategoriesFor returns the category vocabulary allowed for a direction.
func CategoriesFor(d Direction) []string {
	if d == Income {
		return IncomeCategories
	}
	return ExpenseCategories
}

// ValidCategory reports whether category is allowed for direction d.
func ValidCategory(d Direction, category string) bool {
	return slices.Contains(CategoriesFor(d), category)
}
