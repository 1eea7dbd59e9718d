package catalog

import (
	"encoding/json"
	"testing"
)

func TestPageResponse_Decode(t *testing.T) {
	body := `{
		"products": [
			{
				"id": 101,
				"name": "Blender",
				"slugged_name": "blender",
				"status": "active",
				"brand": "Kitcheno",
				"min_qty": 1,
				"category": {"id": 15, "name": "Appliances"},
				"ratings": {"rating_value": 4.2, "session_count": 12},
				"main_img": {"small": "s.jpg", "medium": "m.jpg", "big": "b.jpg"},
				"product_labels": [{"name": "New"}],
				"default_offer": {
					"uuid": "u-101",
					"old_price": 120.5,
					"retail_price": 99.9,
					"installment_enabled": true,
					"max_installment_months": 6,
					"qty": 3,
					"seller": {
						"ext_id": "S0001",
						"rating": 4.6,
						"role_name": "marketplace",
						"vat_payer": false,
						"marketing_name": {"name": "HomeGoods"}
					}
				}
			}
		],
		"meta": {"total": 11713}
	}`

	var page PageResponse
	if err := json.Unmarshal([]byte(body), &page); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if page.Total() != 11713 {
		t.Errorf("Total() = %d, want 11713", page.Total())
	}
	if len(page.Products) != 1 {
		t.Fatalf("len(Products) = %d, want 1", len(page.Products))
	}

	p := page.Products[0]
	if p.ID != 101 || p.Name != "Blender" {
		t.Errorf("Product = %d/%q, want 101/Blender", p.ID, p.Name)
	}
	if p.DefaultOffer.RetailPrice != 99.9 {
		t.Errorf("RetailPrice = %v, want 99.9", p.DefaultOffer.RetailPrice)
	}
	if p.DefaultOffer.Seller.MarketingName.Name != "HomeGoods" {
		t.Errorf("SellerName = %q, want HomeGoods", p.DefaultOffer.Seller.MarketingName.Name)
	}
}

func TestPageResponse_Total(t *testing.T) {
	tests := []struct {
		name string
		resp *PageResponse
		want int
	}{
		{"nil response", nil, 0},
		{"missing meta", &PageResponse{}, 0},
		{"zero total", &PageResponse{Meta: &Meta{Total: 0}}, 0},
		{"reported total", &PageResponse{Meta: &Meta{Total: 240}}, 240},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.resp.Total(); got != tt.want {
				t.Errorf("Total() = %d, want %d", got, tt.want)
			}
		})
	}
}
