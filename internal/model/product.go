package model

type Product struct {
	ID      string  `json:"id" bson:"_id"`
	Name    string  `json:"name" bson:"name"`
	Price   float64 `json:"price" bson:"price"`
	InStock bool    `json:"in_stock" bson:"in_stock"`
}

// ProductPatch carries the mutable fields of an update. Nil fields are left as they are.
type ProductPatch struct {
	Name    *string  `json:"name,omitempty"`
	Price   *float64 `json:"price,omitempty"`
	InStock *bool    `json:"in_stock,omitempty"`
}

func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.InStock == nil
}

// Apply returns a copy of product with the patch fields replaced.
func (p ProductPatch) Apply(product Product) Product {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.InStock != nil {
		product.InStock = *p.InStock
	}
	return product
}
