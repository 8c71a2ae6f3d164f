package dto

type ProductFilters struct {
	MerchantID  string
	IsActive    *bool
	SearchQuery string // For name, sku, barcode search
	SortBy      string // name, price, stock, created_at
	SortOrder   string // asc, desc
	Page        int
	PageSize    int
}
