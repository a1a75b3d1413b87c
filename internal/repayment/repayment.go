// Package repayment detects credit card repayments in raw spending text and rewrites the
// classifier's guess into a transfer that pays the card down.
package repayment

import (
	"regexp"
	"strings"

	"fjacquet/spend-ledger/internal/models"
	"fjacquet/spend-ledger/internal/resolver"
)

// defaultPatterns match a repayment intent in English or Chinese. "paid with credit card"
// must not match: the card is the payment method there, not the thing being paid.
var defaultPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(repaid|repay|repaying|repayment|paid\s+off|pay\s+off|paying\s+off|paid|pay|settled?|cleared?)\s+(the\s+|my\s+|off\s+)?(credit\s*card|cc)\b`),
	regexp.MustCompile(`(?i)\bcredit\s*card\s+(repayment|payment|bill\s+paid|paid\s+off)\b`),
	regexp.MustCompile(`还(了)?信用卡`),
	regexp.MustCompile(`信用卡还款`),
	regexp.MustCompile(`还款.*信用卡`),
}

// chargePatterns name new charges on the card. "paid the credit card annual fee" adds debt,
// so a text naming one is never treated as a repayment.
var chargePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(fees?|interest|annual|charges?|penalty|penalties)\b`),
	regexp.MustCompile(`年费|利息|手续费|滞纳金|违约金`),
}

// Rule rewrites guesses for repayment texts.
type Rule struct {
	patterns []*regexp.Regexp
	charges  []*regexp.Regexp
	target   string
	funding  string
}

// NewRule returns the rule with the built-in bilingual patterns.
func NewRule() *Rule {
	return &Rule{
		patterns: defaultPatterns,
		charges:  chargePatterns,
		target:   models.AccountCreditCard,
		funding:  models.DefaultFundingAccount,
	}
}

// Matches reports whether text expresses a credit card repayment.
func (r *Rule) Matches(text string) bool {
	for _, c := range r.charges {
		if c.MatchString(text) {
			return false
		}
	}
	for _, p := range r.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Apply returns the guess rewritten as a transfer into the credit card when text matches,
// and whether it did. Only the raw text is inspected; the guess's own fields never trigger it.
func (r *Rule) Apply(text string, guess models.ClassifiedGuess) (models.ClassifiedGuess, bool) {
	if !r.Matches(text) {
		return guess, false
	}

	guess.Type = string(models.TransactionTypeTransfer)
	guess.TargetAccount = r.target
	if guess.Category == "" || strings.EqualFold(guess.Category, models.CategoryUncategorized) {
		guess.Category = models.CategoryRepayment
	}
	if strings.TrimSpace(guess.Account) == "" || r.isTarget(guess.Account) {
		guess.Account = r.funding
	}
	return guess, true
}

// isTarget reports whether a raw account token names the credit card.
func (r *Rule) isTarget(raw string) bool {
	if name, ok := resolver.Alias(raw); ok {
		return name == r.target
	}
	return resolver.Normalize(raw) == resolver.Normalize(r.target)
}
