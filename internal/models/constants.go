package models

// Supported currencies. Balances are stored in one of these and never converted in place.
const (
	CurrencyCAD = "CAD"
	CurrencyCNY = "CNY"
)

// Reserved account names created for every user on first use.
const (
	AccountWallet     = "Wallet"
	AccountCash       = "Cash"
	AccountDebitCard  = "DebitCard"
	AccountCreditCard = "CreditCard"
)

// DefaultFundingAccount is the debit-type account used when money has to leave from somewhere
// and nothing better is known (repayment override, degraded classification).
const DefaultFundingAccount = AccountDebitCard

// Categories
const (
	CategoryUncategorized = "Uncategorized"
	CategoryRepayment     = "Repayment"
)

// File permissions
const (
	PermissionDirectory  = 0750
	PermissionReportFile = 0644
)
