// Package catalog defines the Umico marketplace catalog data model:
// the raw product envelope returned by the paginated products API and
// the flat record shape handed to output writers.
package catalog

// PageResponse is the envelope returned by the products endpoint for one page.
// The meta block with the total product count is only populated reliably on
// page 1; later pages may omit it.
type PageResponse struct {
	Products []Product `json:"products"`
	Meta     *Meta     `json:"meta,omitempty"`
}

// Meta carries catalog-wide counters from the response envelope.
type Meta struct {
	Total int `json:"total"`
}

// Total returns the reported total product count, or 0 if the envelope
// carried no meta block.
func (r *PageResponse) Total() int {
	if r == nil || r.Meta == nil {
		return 0
	}
	return r.Meta.Total
}

// Product is one raw catalog entry as returned by the API.
type Product struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	SluggedName       string  `json:"slugged_name"`
	Status            string  `json:"status"`
	Brand             string  `json:"brand"`
	MinQty            int     `json:"min_qty"`
	PreorderAvailable bool    `json:"preorder_available"`
	Category          Category `json:"category"`
	Ratings           Ratings  `json:"ratings"`
	MainImg           Image    `json:"main_img"`
	ProductLabels     []Label  `json:"product_labels"`
	DefaultOffer      Offer    `json:"default_offer"`
}

// Category identifies the catalog category a product belongs to.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Ratings holds aggregated customer rating data.
type Ratings struct {
	RatingValue  float64 `json:"rating_value"`
	SessionCount int     `json:"session_count"`
}

// Image holds the product image URLs by size.
type Image struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Big    string `json:"big"`
}

// Label is a marketing label attached to a product.
type Label struct {
	Name string `json:"name"`
}

// Offer is the default sale offer for a product.
type Offer struct {
	UUID                       string  `json:"uuid"`
	OldPrice                   float64 `json:"old_price"`
	RetailPrice                float64 `json:"retail_price"`
	InstallmentEnabled         bool    `json:"installment_enabled"`
	MaxInstallmentMonths       int     `json:"max_installment_months"`
	Qty                        int     `json:"qty"`
	DiscountEffectiveStartDate string  `json:"discount_effective_start_date"`
	DiscountEffectiveEndDate   string  `json:"discount_effective_end_date"`
	Seller                     Seller  `json:"seller"`
}

// Seller describes the merchant behind an offer.
type Seller struct {
	ExtID         string        `json:"ext_id"`
	Rating        float64       `json:"rating"`
	RoleName      string        `json:"role_name"`
	VatPayer      bool          `json:"vat_payer"`
	MarketingName MarketingName `json:"marketing_name"`
}

// MarketingName is the seller's public display name.
type MarketingName struct {
	Name string `json:"name"`
}
