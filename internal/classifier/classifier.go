// Package classifier turns free spending text into an untrusted ClassifiedGuess.
// Nothing produced here is trusted: the ledger validates and resolves every field.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"fjacquet/spend-ledger/internal/logging"
	"fjacquet/spend-ledger/internal/models"
)

// Classifier extracts a transaction guess from raw text. accounts lists the user's account
// names so the model can pick among them.
type Classifier interface {
	Classify(ctx context.Context, text string, accounts []string) (models.ClassifiedGuess, error)
}

// ModelClient abstracts a text-generation backend.
type ModelClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ModelClassifier asks a language model for a JSON guess.
type ModelClassifier struct {
	client ModelClient
	logger logging.Logger
	now    func() time.Time
}

// NewModelClassifier creates a classifier backed by client.
func NewModelClassifier(client ModelClient, logger logging.Logger) *ModelClassifier {
	return &ModelClassifier{
		client: client,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// Classify implements Classifier.
func (c *ModelClassifier) Classify(ctx context.Context, text string, accounts []string) (models.ClassifiedGuess, error) {
	prompt := buildPrompt(text, accounts, c.now())

	c.logger.Debug("Requesting classification",
		logging.Field{Key: logging.FieldOperation, Value: "classify"})

	response, err := c.client.GenerateText(ctx, prompt)
	if err != nil {
		return models.ClassifiedGuess{}, fmt.Errorf("classifier request failed: %w", err)
	}

	guess, err := parseGuess(response)
	if err != nil {
		return models.ClassifiedGuess{}, err
	}
	return guess, nil
}

func buildPrompt(text string, accounts []string, now time.Time) string {
	var b strings.Builder
	b.WriteString("You convert a personal spending note into one JSON object and nothing else.\n")
	b.WriteString("Fields:\n")
	b.WriteString(`  "amount": positive number, no currency symbol` + "\n")
	b.WriteString(`  "type": one of "expense", "income", "transfer"` + "\n")
	b.WriteString(`  "category": short English category such as Food, Transport, Salary` + "\n")
	b.WriteString(`  "account": the account money leaves (expense, transfer) or enters (income)` + "\n")
	b.WriteString(`  "target_account": receiving account, only for transfers, else ""` + "\n")
	b.WriteString(`  "date": YYYY-MM-DD, today is ` + now.Format("2006-01-02") + "\n")
	b.WriteString(`  "note": short description` + "\n")
	if len(accounts) > 0 {
		b.WriteString("Prefer these account names exactly as written: ")
		b.WriteString(strings.Join(accounts, ", "))
		b.WriteString("\n")
	}
	b.WriteString("Note: ")
	b.WriteString(text)
	return b.String()
}

// rawGuess accepts the loosely typed JSON models tend to emit.
type rawGuess struct {
	Amount        json.RawMessage `json:"amount"`
	Type          string          `json:"type"`
	Category      string          `json:"category"`
	Account       string          `json:"account"`
	TargetAccount string          `json:"target_account"`
	Date          string          `json:"date"`
	Note          string          `json:"note"`
}

func parseGuess(response string) (models.ClassifiedGuess, error) {
	body := cleanModelJSON(response)
	if body == "" {
		return models.ClassifiedGuess{}, fmt.Errorf("classifier returned no JSON object")
	}

	var raw rawGuess
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return models.ClassifiedGuess{}, fmt.Errorf("failed to decode classifier response: %w", err)
	}

	return models.ClassifiedGuess{
		Amount:        parseLooseNumber(raw.Amount),
		Type:          strings.TrimSpace(raw.Type),
		Category:      strings.TrimSpace(raw.Category),
		Account:       strings.TrimSpace(raw.Account),
		TargetAccount: strings.TrimSpace(raw.TargetAccount),
		Date:          strings.TrimSpace(raw.Date),
		Note:          strings.TrimSpace(raw.Note),
	}, nil
}

// parseLooseNumber accepts 12.5 or "12.5". Anything else becomes NaN so validation rejects it.
func parseLooseNumber(msg json.RawMessage) float64 {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 || bytes.Equal(msg, []byte("null")) {
		return math.NaN()
	}
	var f float64
	if err := json.Unmarshal(msg, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return math.NaN()
}

// cleanModelJSON strips markdown fences and surrounding prose from a model response.
func cleanModelJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
