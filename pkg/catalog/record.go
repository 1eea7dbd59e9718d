package catalog

import (
	"math"
	"strings"
)

// Record is one catalog entry flattened into the shape output writers expect.
// Immutable once produced by Flatten.
type Record struct {
	ProductID            int64   `csv:"product_id" json:"product_id"`
	Name                 string  `csv:"name" json:"name"`
	SluggedName          string  `csv:"slugged_name" json:"slugged_name"`
	Status               string  `csv:"status" json:"status"`
	Brand                string  `csv:"brand" json:"brand"`
	CategoryID           int64   `csv:"category_id" json:"category_id"`
	CategoryName         string  `csv:"category_name" json:"category_name"`
	OldPrice             float64 `csv:"old_price" json:"old_price"`
	RetailPrice          float64 `csv:"retail_price" json:"retail_price"`
	DiscountPercent      float64 `csv:"discount_percent" json:"discount_percent"`
	InstallmentEnabled   bool    `csv:"installment_enabled" json:"installment_enabled"`
	MaxInstallmentMonths int     `csv:"max_installment_months" json:"max_installment_months"`
	SellerID             string  `csv:"seller_id" json:"seller_id"`
	SellerName           string  `csv:"seller_name" json:"seller_name"`
	SellerRating         float64 `csv:"seller_rating" json:"seller_rating"`
	SellerRole           string  `csv:"seller_role" json:"seller_role"`
	SellerVATPayer       bool    `csv:"seller_vat_payer" json:"seller_vat_payer"`
	RatingValue          float64 `csv:"rating_value" json:"rating_value"`
	RatingCount          int     `csv:"rating_count" json:"rating_count"`
	MinQty               int     `csv:"min_qty" json:"min_qty"`
	PreorderAvailable    bool    `csv:"preorder_available" json:"preorder_available"`
	ProductLabels        string  `csv:"product_labels" json:"product_labels"`
	ImageSmall           string  `csv:"image_small" json:"image_small"`
	ImageMedium          string  `csv:"image_medium" json:"image_medium"`
	ImageBig             string  `csv:"image_big" json:"image_big"`
	OfferUUID            string  `csv:"offer_uuid" json:"offer_uuid"`
	StockQty             int     `csv:"stock_qty" json:"stock_qty"`
	DiscountStartDate    string  `csv:"discount_start_date" json:"discount_start_date"`
	DiscountEndDate      string  `csv:"discount_end_date" json:"discount_end_date"`
}

// Flatten maps a raw product into a Record. Pure function, the input is
// never modified.
func Flatten(p Product) Record {
	offer := p.DefaultOffer
	seller := offer.Seller

	labels := make([]string, 0, len(p.ProductLabels))
	for _, label := range p.ProductLabels {
		labels = append(labels, label.Name)
	}

	return Record{
		ProductID:            p.ID,
		Name:                 p.Name,
		SluggedName:          p.SluggedName,
		Status:               p.Status,
		Brand:                p.Brand,
		CategoryID:           p.Category.ID,
		CategoryName:         p.Category.Name,
		OldPrice:             offer.OldPrice,
		RetailPrice:          offer.RetailPrice,
		DiscountPercent:      discountPercent(offer.OldPrice, offer.RetailPrice),
		InstallmentEnabled:   offer.InstallmentEnabled,
		MaxInstallmentMonths: offer.MaxInstallmentMonths,
		SellerID:             seller.ExtID,
		SellerName:           seller.MarketingName.Name,
		SellerRating:         seller.Rating,
		SellerRole:           seller.RoleName,
		SellerVATPayer:       seller.VatPayer,
		RatingValue:          p.Ratings.RatingValue,
		RatingCount:          p.Ratings.SessionCount,
		MinQty:               p.MinQty,
		PreorderAvailable:    p.PreorderAvailable,
		ProductLabels:        strings.Join(labels, ", "),
		ImageSmall:           p.MainImg.Small,
		ImageMedium:          p.MainImg.Medium,
		ImageBig:             p.MainImg.Big,
		OfferUUID:            offer.UUID,
		StockQty:             offer.Qty,
		DiscountStartDate:    offer.DiscountEffectiveStartDate,
		DiscountEndDate:      offer.DiscountEffectiveEndDate,
	}
}

// discountPercent derives the discount from old vs retail price, rounded to
// two decimals. Products without an old price have no discount.
func discountPercent(oldPrice, retailPrice float64) float64 {
	if oldPrice == 0 {
		return 0
	}
	pct := (oldPrice - retailPrice) / oldPrice * 100
	return math.Round(pct*100) / 100
}
