package ledger

import (
	"fmt"

	"fjacquet/spend-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// Role is the position an account plays in a transaction.
type Role int

const (
	RoleSource Role = iota
	RoleTarget
)

// Sign returns +1 or -1, the direction in which an account's balance moves, or 0 when the
// account does not take part in that role for that transaction type.
//
//	type      source asset  source liability  target asset  target liability
//	expense   -             +                 n/a           n/a
//	income    +             -                 n/a           n/a
//	transfer  -             -                 +             -
//
// A liability balance is the amount owed, so spending on it grows the balance and a
// transfer into it (a repayment) shrinks it.
func Sign(txType models.TransactionType, role Role, accType models.AccountType) int {
	liability := accType == models.AccountTypeLiability

	switch role {
	case RoleSource:
		switch txType {
		case models.TransactionTypeExpense:
			if liability {
				return 1
			}
			return -1
		case models.TransactionTypeIncome:
			if liability {
				return -1
			}
			return 1
		case models.TransactionTypeTransfer:
			return -1
		}
	case RoleTarget:
		if txType != models.TransactionTypeTransfer {
			return 0
		}
		if liability {
			return -1
		}
		return 1
	}
	return 0
}

// Effect is the balance change a transaction causes on one account.
type Effect struct {
	Account string
	Delta   decimal.Decimal
}

// Effects computes the balance changes of applying a transaction of txType and amount to
// source and, for transfers, target.
func Effects(txType models.TransactionType, amount decimal.Decimal, source models.Account, target *models.Account) ([]Effect, error) {
	if !txType.IsValid() {
		return nil, fmt.Errorf("unknown transaction type %q", txType)
	}

	effects := []Effect{{
		Account: source.Name,
		Delta:   amount.Mul(decimal.NewFromInt(int64(Sign(txType, RoleSource, source.Type)))),
	}}

	if txType == models.TransactionTypeTransfer {
		if target == nil {
			return nil, fmt.Errorf("transfer from %s has no target", source.Name)
		}
		effects = append(effects, Effect{
			Account: target.Name,
			Delta:   amount.Mul(decimal.NewFromInt(int64(Sign(txType, RoleTarget, target.Type)))),
		})
	}
	return effects, nil
}
