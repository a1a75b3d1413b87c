package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/spend-ledger/internal/fileutils"
	"fjacquet/spend-ledger/internal/logging"
	"fjacquet/spend-ledger/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultSeedFile is the file name looked up when no explicit seed path is configured.
const DefaultSeedFile = "accounts.yaml"

// SeedFile loads the bootstrap account set from YAML.
//
//	accounts:
//	  - name: Wallet
//	    currency: CNY
//	    initial_balance: "150.00"
//	  - name: Savings
//	    type: asset
//	    currency: CAD
//
// Entries naming a reserved account override its currency and initial balance; the type of
// a reserved account cannot be changed. Other entries add accounts to the bootstrap set.
type SeedFile struct {
	Path   string
	logger logging.Logger
}

type seedDocument struct {
	Accounts []seedAccount `yaml:"accounts"`
}

type seedAccount struct {
	Name           string `yaml:"name"`
	Type           string `yaml:"type"`
	Currency       string `yaml:"currency"`
	InitialBalance string `yaml:"initial_balance"`
}

// NewSeedFile creates a seed loader. An empty path means DefaultSeedFile.
func NewSeedFile(path string, logger logging.Logger) *SeedFile {
	return &SeedFile{Path: path, logger: logging.OrNop(logger)}
}

// FindConfigFile looks for a configuration file in standard locations
func (s *SeedFile) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if fileutils.FileExists(filename) {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join(".spend-ledger", filename),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".spend-ledger", filename))
	}

	for _, location := range locations {
		if fileutils.FileExists(location) {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}

// Load returns the bootstrap accounts: the built-in defaults merged with the seed file.
// A missing seed file is not an error.
func (s *SeedFile) Load() ([]models.DefaultAccount, error) {
	defaults := models.DefaultAccounts()

	filename := s.Path
	if filename == "" {
		filename = DefaultSeedFile
	}

	filePath, err := s.FindConfigFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("No account seed file found, using built-in defaults",
				logging.Field{Key: logging.FieldPath, Value: filename})
			return defaults, nil
		}
		return nil, fmt.Errorf("error resolving account seed file: %w", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading account seed file: %w", err)
	}

	var doc seedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing account seed file %s: %w", filePath, err)
	}

	merged, err := mergeSeed(defaults, doc.Accounts)
	if err != nil {
		return nil, fmt.Errorf("invalid account seed file %s: %w", filePath, err)
	}

	s.logger.Debug("Loaded account seed",
		logging.Field{Key: logging.FieldPath, Value: filePath},
		logging.Field{Key: logging.FieldCount, Value: len(doc.Accounts)})
	return merged, nil
}

func mergeSeed(defaults []models.DefaultAccount, entries []seedAccount) ([]models.DefaultAccount, error) {
	out := append([]models.DefaultAccount(nil), defaults...)
	seen := make(map[string]bool, len(entries))

	for i, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("entry %d: name is required", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("entry %d: duplicate account %q", i, name)
		}
		seen[name] = true

		idx := -1
		for j := range out {
			if out[j].Name == name {
				idx = j
				break
			}
		}

		acc := models.DefaultAccount{Name: name, Type: models.AccountTypeAsset, Currency: models.CurrencyCAD}
		if idx >= 0 {
			acc = out[idx]
		}

		if e.Type != "" {
			t, err := models.ParseAccountType(e.Type)
			if err != nil {
				return nil, fmt.Errorf("entry %q: %w", name, err)
			}
			if idx >= 0 && t != acc.Type {
				return nil, fmt.Errorf("entry %q: reserved account type is %s", name, acc.Type)
			}
			acc.Type = t
		}
		if e.Currency != "" {
			code := models.NormalizeCurrency(e.Currency)
			if !models.IsSupportedCurrency(code) {
				return nil, fmt.Errorf("entry %q: unsupported currency %q", name, e.Currency)
			}
			acc.Currency = code
		}
		if e.InitialBalance != "" {
			d, err := decimal.NewFromString(strings.TrimSpace(e.InitialBalance))
			if err != nil {
				return nil, fmt.Errorf("entry %q: invalid initial_balance %q", name, e.InitialBalance)
			}
			acc.InitialBalance = d
		}

		if idx >= 0 {
			out[idx] = acc
		} else {
			out = append(out, acc)
		}
	}
	return out, nil
}
