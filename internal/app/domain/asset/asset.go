// Package asset implements the typed monetary values used by the ledger.
// Quantities are integer amounts in the smallest unit of a symbol, never
// floating point.
package asset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Symbol identifies a currency code together with its decimal precision.
type Symbol struct {
	Code      string
	Precision uint8
}

// Burned is the internal accounting unit balances and burn totals are
// denominated in. It is distinct from any tradeable token symbol.
var Burned = Symbol{Code: "BURNED", Precision: 4}

// String renders the symbol in "precision,CODE" form.
func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}

// ParseSymbol parses the "precision,CODE" form produced by Symbol.String.
func ParseSymbol(raw string) (Symbol, error) {
	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 || parts[1] == "" {
		return Symbol{}, fmt.Errorf("invalid symbol %q", raw)
	}
	precision, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return Symbol{}, fmt.Errorf("invalid symbol precision %q: %w", raw, err)
	}
	return Symbol{Code: parts[1], Precision: uint8(precision)}, nil
}

// Asset is an integer quantity of a symbol.
type Asset struct {
	Amount int64
	Symbol Symbol
}

// New builds an asset from a raw amount in the symbol's smallest unit.
func New(amount int64, sym Symbol) Asset {
	return Asset{Amount: amount, Symbol: sym}
}

// IsPositive reports whether the amount is greater than zero.
func (a Asset) IsPositive() bool { return a.Amount > 0 }

// Add returns a+b. The symbols must match and the sum must stay in range.
func (a Asset) Add(b Asset) (Asset, error) {
	if a.Symbol != b.Symbol {
		return Asset{}, fmt.Errorf("symbol mismatch: %s vs %s", a.Symbol.Code, b.Symbol.Code)
	}
	sum := a.Amount + b.Amount
	if (b.Amount > 0 && sum < a.Amount) || (b.Amount < 0 && sum > a.Amount) {
		return Asset{}, fmt.Errorf("amount overflow adding %s and %s", a, b)
	}
	return Asset{Amount: sum, Symbol: a.Symbol}, nil
}

// Sub returns a-b. The symbols must match and the difference must stay in
// range.
func (a Asset) Sub(b Asset) (Asset, error) {
	if a.Symbol != b.Symbol {
		return Asset{}, fmt.Errorf("symbol mismatch: %s vs %s", a.Symbol.Code, b.Symbol.Code)
	}
	diff := a.Amount - b.Amount
	if (b.Amount < 0 && diff < a.Amount) || (b.Amount > 0 && diff > a.Amount) {
		return Asset{}, fmt.Errorf("amount overflow subtracting %s from %s", b, a)
	}
	return Asset{Amount: diff, Symbol: a.Symbol}, nil
}

// String renders the asset as "1.0000 BURNED". Precision zero symbols render
// without a decimal point.
func (a Asset) String() string {
	amount := a.Amount
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	if a.Symbol.Precision == 0 {
		return fmt.Sprintf("%s%d %s", sign, amount, a.Symbol.Code)
	}
	scale := pow10(a.Symbol.Precision)
	return fmt.Sprintf("%s%d.%0*d %s", sign, amount/scale, int(a.Symbol.Precision), amount%scale, a.Symbol.Code)
}

// Parse decodes the "1.0000 BURNED" form. The symbol precision is inferred
// from the number of fractional digits.
func Parse(raw string) (Asset, error) {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) != 2 {
		return Asset{}, fmt.Errorf("invalid asset %q", raw)
	}
	number, code := fields[0], fields[1]

	negative := strings.HasPrefix(number, "-")
	number = strings.TrimPrefix(number, "-")

	intPart := number
	fracPart := ""
	if dot := strings.IndexByte(number, '.'); dot >= 0 {
		intPart, fracPart = number[:dot], number[dot+1:]
	}
	if intPart == "" || len(fracPart) > 18 {
		return Asset{}, fmt.Errorf("invalid asset %q", raw)
	}

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Asset{}, fmt.Errorf("invalid asset %q: %w", raw, err)
	}
	scale := pow10(uint8(len(fracPart)))
	if whole < 0 || whole > math.MaxInt64/scale {
		return Asset{}, fmt.Errorf("invalid asset %q: magnitude out of range", raw)
	}
	amount := whole * scale
	if fracPart != "" {
		frac, err := strconv.ParseUint(fracPart, 10, 63)
		if err != nil {
			return Asset{}, fmt.Errorf("invalid asset %q: %w", raw, err)
		}
		if amount > math.MaxInt64-int64(frac) {
			return Asset{}, fmt.Errorf("invalid asset %q: magnitude out of range", raw)
		}
		amount += int64(frac)
	}
	if negative {
		amount = -amount
	}
	return Asset{Amount: amount, Symbol: Symbol{Code: code, Precision: uint8(len(fracPart))}}, nil
}

// MarshalJSON encodes the asset in its string form.
func (a Asset) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

// UnmarshalJSON decodes the string form.
func (a *Asset) UnmarshalJSON(data []byte) error {
	raw, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("asset must be a JSON string: %w", err)
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func pow10(n uint8) int64 {
	result := int64(1)
	for i := uint8(0); i < n; i++ {
		result *= 10
	}
	return result
}
