// Package resolver maps raw account tokens produced by people or by the classifier to
// exactly one canonical account name of a user's directory.
//
// Matching runs in a fixed priority order and stops at the first step that succeeds:
//  1. the raw token is already a canonical name
//  2. bilingual alias table for the reserved accounts
//  3. exact match after normalization (case, separators)
//  4. containment match, best overlap wins, ties are rejected
package resolver

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"fjacquet/spend-ledger/internal/ledgererror"
	"fjacquet/spend-ledger/internal/models"
)

// Method names the step that produced a match.
type Method string

const (
	MethodIdentity Method = "identity"
	MethodAlias    Method = "alias"
	MethodExact    Method = "normalized"
	MethodFuzzy    Method = "containment"
)

// Match is a successful resolution.
type Match struct {
	Name   string
	Method Method
}

// aliases maps lower-cased, trimmed tokens to reserved account names.
var aliases = map[string]string{
	// wallet
	"wallet":     models.AccountWallet,
	"e-wallet":   models.AccountWallet,
	"ewallet":    models.AccountWallet,
	"wechat":     models.AccountWallet,
	"wechat pay": models.AccountWallet,
	"alipay":     models.AccountWallet,
	"钱包":         models.AccountWallet,
	"微信":         models.AccountWallet,
	"微信钱包":       models.AccountWallet,
	"支付宝":        models.AccountWallet,

	// cash
	"cash": models.AccountCash,
	"现金":   models.AccountCash,
	"现钞":   models.AccountCash,

	// credit card
	"credit card": models.AccountCreditCard,
	"credit":      models.AccountCreditCard,
	"cc":          models.AccountCreditCard,
	"信用卡":         models.AccountCreditCard,
	"信用":          models.AccountCreditCard,

	// debit card
	"debit card":    models.AccountDebitCard,
	"debit":         models.AccountDebitCard,
	"debit account": models.AccountDebitCard,
	"借记卡":           models.AccountDebitCard,
	"储蓄卡":           models.AccountDebitCard,
	"银行卡":           models.AccountDebitCard,
}

// Alias returns the reserved account name raw is an alias of, if any.
func Alias(raw string) (string, bool) {
	name, ok := aliases[strings.ToLower(strings.TrimSpace(raw))]
	return name, ok
}

// Normalize lower-cases s and strips surrounding space and the separators '_', '-' and
// any whitespace.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Resolve returns the canonical name raw refers to among candidates.
// It fails with a resolution error wrapping ledgererror.ErrAccountNotFound.
func Resolve(raw string, candidates []string) (string, error) {
	m, ok := Find(raw, candidates)
	if !ok {
		return "", ledgererror.Resolution("resolve account", raw)
	}
	return m.Name, nil
}

// Find is Resolve reporting which step matched.
func Find(raw string, candidates []string) (Match, bool) {
	if strings.TrimSpace(raw) == "" || len(candidates) == 0 {
		return Match{}, false
	}

	for _, c := range candidates {
		if c == raw {
			return Match{Name: c, Method: MethodIdentity}, true
		}
	}

	if target, ok := Alias(raw); ok && contains(candidates, target) {
		return Match{Name: target, Method: MethodAlias}, true
	}

	norm := Normalize(raw)
	if norm == "" {
		return Match{}, false
	}
	for _, c := range candidates {
		if Normalize(c) == norm {
			return Match{Name: c, Method: MethodExact}, true
		}
	}

	if name, ok := bestContainment(norm, candidates); ok {
		return Match{Name: name, Method: MethodFuzzy}, true
	}
	return Match{}, false
}

// bestContainment scores every candidate that contains, or is contained in, norm by the
// length of the shorter string. The highest score wins; equal scores go to the smaller
// length difference; anything still tied is ambiguous and matches nothing.
func bestContainment(norm string, candidates []string) (string, bool) {
	normLen := utf8.RuneCountInString(norm)

	best := ""
	bestOverlap, bestDiff := -1, 0
	tied := false

	for _, c := range candidates {
		nc := Normalize(c)
		if nc == "" || !(strings.Contains(norm, nc) || strings.Contains(nc, norm)) {
			continue
		}
		cLen := utf8.RuneCountInString(nc)
		overlap := min(cLen, normLen)
		diff := abs(cLen - normLen)

		switch {
		case overlap > bestOverlap, overlap == bestOverlap && diff < bestDiff:
			best, bestOverlap, bestDiff, tied = c, overlap, diff, false
		case overlap == bestOverlap && diff == bestDiff:
			tied = true
		}
	}

	if best == "" || tied {
		return "", false
	}
	return best, true
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
