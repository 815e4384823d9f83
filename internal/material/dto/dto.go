package dto

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
	MaxPage         = 100000
)

type MaterialFilters struct {
	Query      string `json:"q"`
	LowOnly    bool   `json:"lowOnly"`
	ActiveOnly bool   `json:"activeOnly"`
	Page       int    `json:"page"`
	PageSize   int    `json:"limit"`
}

// Normalize applies the paging defaults and cap.
func (f *MaterialFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}
