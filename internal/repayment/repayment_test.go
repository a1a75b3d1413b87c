package repayment

import (
	"testing"

	"fjacquet/spend-ledger/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRule_Matches(t *testing.T) {
	rule := NewRule()

	tests := []struct {
		text string
		want bool
	}{
		{"repaid credit card 500", true},
		{"Paid off the credit card, 1200", true},
		{"settled my creditcard 300", true},
		{"pay off cc 80", true},
		{"credit card payment 250", true},
		{"还信用卡 2000", true},
		{"今天还了信用卡500", true},
		{"信用卡还款 800", true},
		{"还款给招商信用卡 300", true},
		{"paid with credit card 45 for lunch", false},
		{"lunch 20 credit card", false},
		{"用信用卡买了咖啡 30", false},
		{"groceries 60", false},
		{"paid the credit card annual fee 120", false},
		{"paid cc interest 35", false},
		{"pay credit card late payment fee 40", false},
		{"settled credit card charges 90", false},
		{"还信用卡年费 300", false},
		{"信用卡还款 利息 50", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, rule.Matches(tt.text))
		})
	}
}

func TestRule_Apply_RewritesGuess(t *testing.T) {
	rule := NewRule()

	tests := []struct {
		name        string
		guess       models.ClassifiedGuess
		wantAccount string
	}{
		{
			name:        "classifier guessed expense on the card",
			guess:       models.ClassifiedGuess{Amount: 500, Type: "expense", Category: "Shopping", Account: "CreditCard"},
			wantAccount: models.AccountDebitCard,
		},
		{
			name:        "source is a credit card alias",
			guess:       models.ClassifiedGuess{Amount: 500, Type: "expense", Account: "信用卡"},
			wantAccount: models.AccountDebitCard,
		},
		{
			name:        "source spelled with separators",
			guess:       models.ClassifiedGuess{Amount: 500, Type: "income", Account: "credit_card"},
			wantAccount: models.AccountDebitCard,
		},
		{
			name:        "empty source",
			guess:       models.ClassifiedGuess{Amount: 500, Type: "transfer"},
			wantAccount: models.AccountDebitCard,
		},
		{
			name:        "explicit funding account is kept",
			guess:       models.ClassifiedGuess{Amount: 500, Type: "expense", Account: "Cash"},
			wantAccount: "Cash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, applied := rule.Apply("repaid credit card 500", tt.guess)

			assert.True(t, applied)
			assert.Equal(t, string(models.TransactionTypeTransfer), got.Type)
			assert.Equal(t, models.AccountCreditCard, got.TargetAccount)
			assert.Equal(t, tt.wantAccount, got.Account)
			assert.Equal(t, tt.guess.Amount, got.Amount)
		})
	}
}

func TestRule_Apply_Category(t *testing.T) {
	rule := NewRule()

	got, _ := rule.Apply("还信用卡 2000", models.ClassifiedGuess{Amount: 2000})
	assert.Equal(t, models.CategoryRepayment, got.Category)

	got, _ = rule.Apply("还信用卡 2000", models.ClassifiedGuess{Amount: 2000, Category: "Bills"})
	assert.Equal(t, "Bills", got.Category)
}

func TestRule_Apply_IgnoresStructuredFields(t *testing.T) {
	rule := NewRule()
	guess := models.ClassifiedGuess{
		Amount:        45,
		Type:          "transfer",
		Category:      models.CategoryRepayment,
		Account:       "DebitCard",
		TargetAccount: "CreditCard",
	}

	got, applied := rule.Apply("paid with credit card 45", models.ClassifiedGuess{Amount: 45, Type: "expense", Account: "CreditCard"})
	assert.False(t, applied)
	assert.Equal(t, "expense", got.Type)
	assert.Equal(t, "CreditCard", got.Account)

	got, applied = rule.Apply("dinner 45", guess)
	assert.False(t, applied)
	assert.Equal(t, guess, got)
}
