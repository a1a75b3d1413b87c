// Package currencyutils parses and formats money amounts as people type them in CAD and CNY.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// symbols and codes stripped before parsing. Longest first so "CA$" wins over "$".
	currencyMarks = regexp.MustCompile(`(?i)CA\$|C\$|CAD|CNY|RMB|[$¥￥元块塊\s']`)

	// numberPattern finds the first amount in free text: thousands-grouped or plain, with an
	// optional decimal part.
	numberPattern = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:[.,]\d+)?`)

	// datePattern matches dates written inside the text so their digits are never taken as
	// the amount.
	datePattern = regexp.MustCompile(`\d{4}[-/.]\d{1,2}[-/.]\d{1,2}|(?:\d{4}年)?\d{1,2}月\d{1,2}[日号號]?|\d{4}年\d{1,2}月`)
)

// ParseAmount parses a string representation of an amount into a decimal value
// It handles formats like "1,234.56", "1.234,56", "1234.56", "1234,56", "$12", "¥30", "30元"
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	if strings.TrimSpace(amountStr) == "" {
		return decimal.Zero, nil
	}

	standardized := StandardizeAmount(amountStr)

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}

	return amount, nil
}

// StandardizeAmount converts various currency string formats to a standard format that can
// be parsed by decimal.NewFromString.
func StandardizeAmount(amountStr string) string {
	amountStr = currencyMarks.ReplaceAllString(amountStr, "")

	switch {
	case strings.Contains(amountStr, ",") && strings.Contains(amountStr, "."):
		if strings.LastIndex(amountStr, ".") < strings.LastIndex(amountStr, ",") {
			// 1.234,56
			amountStr = strings.ReplaceAll(amountStr, ".", "")
			amountStr = strings.ReplaceAll(amountStr, ",", ".")
		} else {
			// 1,234.56
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	case strings.Contains(amountStr, ","):
		parts := strings.Split(amountStr, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			// 1234,56
			amountStr = strings.Replace(amountStr, ",", ".", 1)
		} else {
			// 1,234 or 1,234,567
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	}

	return amountStr
}

// FirstAmount returns the first number appearing in text, if any.
func FirstAmount(text string) (decimal.Decimal, bool) {
	match := numberPattern.FindString(datePattern.ReplaceAllString(text, " "))
	if match == "" {
		return decimal.Zero, false
	}
	amount, err := ParseAmount(match)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// FormatAmount formats amount with two decimals and the currency's usual marker, e.g.
// "CA$1234.56" or "¥88.00". Unknown codes are prefixed as "XXX 1.00".
func FormatAmount(amount decimal.Decimal, currency string) string {
	formattedAmount := amount.StringFixed(2)

	switch strings.ToUpper(currency) {
	case "":
		return formattedAmount
	case "CAD":
		return "CA$" + formattedAmount
	case "CNY":
		return "¥" + formattedAmount
	default:
		return strings.ToUpper(currency) + " " + formattedAmount
	}
}
