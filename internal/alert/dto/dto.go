package dto

type AlertFilters struct {
	MerchantID string
	ProductID  string
	Type       string
	UnreadOnly bool
	Page       int
	PageSize   int
}
