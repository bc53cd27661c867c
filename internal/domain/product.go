package domain

import "github.com/google/uuid"

type Product struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	Brand             string    `json:"brand"`
	Tags              []string  `json:"tags"`
	Price             float64   `json:"price"`
	InventoryQuantity int       `json:"inventory_quantity"`
}

// InStock reports whether the product may be recommended.
func (p *Product) InStock() bool {
	return p.InventoryQuantity > 0
}

// TagSet returns the product's tags as a set, ignoring empty values.
func (p *Product) TagSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Tags))
	for _, t := range p.Tags {
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}
