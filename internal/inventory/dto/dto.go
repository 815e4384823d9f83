package dto

const (
	DefaultLedgerLimit = 100
	MaxLedgerLimit     = 500
)

type LedgerFilters struct {
	MaterialID string `json:"materialId"`
	Limit      int    `json:"limit"`
}

func (f *LedgerFilters) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultLedgerLimit
	}
	if f.Limit > MaxLedgerLimit {
		f.Limit = MaxLedgerLimit
	}
}
