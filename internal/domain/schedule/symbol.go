// Package schedule models Drugs & Cosmetics Rules schedules (H, H1, X, N, ...),
// their relative restriction and the prescription policy each one imposes.
package schedule

import (
	"strings"

	"github.com/ehr/pharmacy/internal/domain/shared"
)

// Symbol is a drug schedule classification
type Symbol string

const (
	SymbolNone Symbol = "NONE"
	SymbolG    Symbol = "G"
	SymbolK    Symbol = "K"
	SymbolH    Symbol = "H"
	SymbolN    Symbol = "N"
	SymbolH1   Symbol = "H1"
	SymbolX    Symbol = "X"
)

// ParseSymbol normalizes a schedule string. Empty input means NONE.
func ParseSymbol(s string) (Symbol, error) {
	sym := Symbol(strings.ToUpper(strings.TrimSpace(s)))
	if sym == "" {
		return SymbolNone, nil
	}
	if !sym.IsValid() {
		return "", shared.NewValidationError("unknown schedule symbol %q", s)
	}
	return sym, nil
}

// IsValid returns true if the symbol is a known schedule
func (s Symbol) IsValid() bool {
	switch s {
	case SymbolNone, SymbolG, SymbolK, SymbolH, SymbolN, SymbolH1, SymbolX:
		return true
	}
	return false
}

// String returns the string representation of Symbol
func (s Symbol) String() string {
	return string(s)
}

// IsScheduled returns true for anything stricter than an unscheduled drug
func (s Symbol) IsScheduled() bool {
	return s != SymbolNone && s != ""
}

// Priority ranks restriction: NONE < G = K < H = N < H1 < X
func (s Symbol) Priority() int {
	switch s {
	case SymbolG, SymbolK:
		return 1
	case SymbolH, SymbolN:
		return 2
	case SymbolH1:
		return 3
	case SymbolX:
		return 4
	}
	return 0
}

// IsMoreRestrictive reports whether next is at least as restrictive as base
func IsMoreRestrictive(next, base Symbol) bool {
	return next.Priority() >= base.Priority()
}

// Strictest returns the highest-priority symbol of the set
func Strictest(symbols ...Symbol) Symbol {
	out := SymbolNone
	for _, s := range symbols {
		if s.Priority() > out.Priority() {
			out = s
		}
	}
	return out
}
