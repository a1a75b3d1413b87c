package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType tells whether an account holds funds or represents debt.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
)

// String returns the string representation of the account type
func (t AccountType) String() string {
	return string(t)
}

// IsValid reports whether t is one of the known account types.
func (t AccountType) IsValid() bool {
	return t == AccountTypeAsset || t == AccountTypeLiability
}

// ParseAccountType converts a user supplied string to an AccountType.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown account type %q", s)
	}
	return t, nil
}

// Account is a named account in a user's directory. Balance is always expressed in Currency.
type Account struct {
	UserID          string          `json:"user_id" yaml:"user_id"`
	Name            string          `json:"name" yaml:"name"`
	Type            AccountType     `json:"type" yaml:"type"`
	Currency        string          `json:"currency" yaml:"currency"`
	DisplayCurrency string          `json:"display_currency" yaml:"display_currency"`
	Balance         decimal.Decimal `json:"balance" yaml:"balance"`
	InitialBalance  decimal.Decimal `json:"initial_balance" yaml:"initial_balance"`
	DueDate         *int            `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	CreatedAt       time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" yaml:"updated_at"`
}

// IsLiability returns true for debt accounts such as credit cards.
func (a Account) IsLiability() bool {
	return a.Type == AccountTypeLiability
}

// BalanceMoney returns the balance together with its native currency.
func (a Account) BalanceMoney() Money {
	return NewMoney(a.Balance, a.Currency)
}

// EffectiveDisplayCurrency falls back to the native currency when no display currency is set.
func (a Account) EffectiveDisplayCurrency() string {
	if a.DisplayCurrency == "" {
		return a.Currency
	}
	return a.DisplayCurrency
}

// IsSupportedCurrency reports whether code is one of the ledger currencies.
func IsSupportedCurrency(code string) bool {
	switch code {
	case CurrencyCAD, CurrencyCNY:
		return true
	default:
		return false
	}
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AccountNames extracts the names of accounts, preserving directory order.
func AccountNames(accounts []Account) []string {
	names := make([]string, 0, len(accounts))
	for _, a := range accounts {
		names = append(names, a.Name)
	}
	return names
}

// DefaultAccount describes one entry of the bootstrap account set.
type DefaultAccount struct {
	Name           string          `yaml:"name"`
	Type           AccountType     `yaml:"type"`
	Currency       string          `yaml:"currency"`
	InitialBalance decimal.Decimal `yaml:"initial_balance"`
}

// DefaultAccounts returns the reserved accounts every user starts with.
func DefaultAccounts() []DefaultAccount {
	return []DefaultAccount{
		{Name: AccountWallet, Type: AccountTypeAsset, Currency: CurrencyCNY},
		{Name: AccountCash, Type: AccountTypeAsset, Currency: CurrencyCAD},
		{Name: AccountDebitCard, Type: AccountTypeAsset, Currency: CurrencyCAD},
		{Name: AccountCreditCard, Type: AccountTypeLiability, Currency: CurrencyCAD},
	}
}

// ReservedType returns the fixed type of a reserved account name.
func ReservedType(name string) (AccountType, bool) {
	for _, d := range DefaultAccounts() {
		if d.Name == name {
			return d.Type, true
		}
	}
	return "", false
}
