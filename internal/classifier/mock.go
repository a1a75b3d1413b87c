package classifier

import (
	"context"

	"fjacquet/spend-ledger/internal/models"
)

// MockModelClient is a ModelClient for tests.
type MockModelClient struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
	CallCount    int
	LastPrompt   string
}

// GenerateText implements ModelClient.
func (m *MockModelClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.CallCount++
	m.LastPrompt = prompt
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return `{"amount": 0, "type": "expense"}`, nil
}

// MockClassifier is a Classifier for tests.
type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, text string, accounts []string) (models.ClassifiedGuess, error)
	CallCount    int
}

// Classify implements Classifier.
func (m *MockClassifier) Classify(ctx context.Context, text string, accounts []string) (models.ClassifiedGuess, error) {
	m.CallCount++
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text, accounts)
	}
	return models.ClassifiedGuess{}, nil
}
