package infra

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
)

// MaxBalance is the largest magnitude accounts.balance, a NUMERIC(15,0)
// column, can hold.
const MaxBalance int64 = 999_999_999_999_999

// ErrBalanceRange reports a credit amount the balance column cannot hold.
var ErrBalanceRange = errors.New("balance outside NUMERIC(15,0) range")

var ten = big.NewInt(10)

// ScanBalance converts a scanned accounts.balance into whole credits.
// NULL, NaN, infinities and fractional credits are rejected.
func ScanBalance(n pgtype.Numeric) (int64, error) {
	if !n.Valid {
		return 0, fmt.Errorf("balance is NULL")
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return 0, fmt.Errorf("balance is not finite")
	}
	if n.Int == nil {
		return 0, nil
	}

	v := new(big.Int).Set(n.Int)
	// pgx may report trailing zeros as a positive exponent (5e2 for 500)
	if n.Exp > 0 {
		v.Mul(v, new(big.Int).Exp(ten, big.NewInt(int64(n.Exp)), nil))
	} else if n.Exp < 0 {
		var rem big.Int
		v.QuoRem(v, new(big.Int).Exp(ten, big.NewInt(int64(-n.Exp)), nil), &rem)
		if rem.Sign() != 0 {
			return 0, fmt.Errorf("balance %s has fractional credits", n.Int.String())
		}
	}

	if !v.IsInt64() {
		return 0, fmt.Errorf("%w: %s", ErrBalanceRange, v.String())
	}
	if err := checkBalance(v.Int64()); err != nil {
		return 0, err
	}
	return v.Int64(), nil
}

// BalanceParam encodes a balance or a signed delta against one as a
// query argument for accounts.balance.
func BalanceParam(credits int64) (pgtype.Numeric, error) {
	if err := checkBalance(credits); err != nil {
		return pgtype.Numeric{}, err
	}
	return pgtype.Numeric{Int: big.NewInt(credits), Valid: true}, nil
}

func checkBalance(credits int64) error {
	if credits > MaxBalance || credits < -MaxBalance {
		return fmt.Errorf("%w: %d", ErrBalanceRange, credits)
	}
	return nil
}
