package model

type ProductCategory string

const (
	CategoryAncient  ProductCategory = "Ancient"
	CategoryMedieval ProductCategory = "Medieval"
	CategoryMughal   ProductCategory = "Mughal"
	CategoryColonial ProductCategory = "Colonial"
	CategoryRepublic ProductCategory = "Republic"
)

// CategoryAll is the catalog filter value meaning "no category filter"
const CategoryAll = "All"

// Product is one catalog coin. Cart line items keep a frozen copy of it.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       float64         `json:"price"`
	Image       string          `json:"image,omitempty"`
	Period      string          `json:"period,omitempty"`
	Metal       string          `json:"metal,omitempty"`
	Rarity      string          `json:"rarity,omitempty"`
	Category    ProductCategory `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
}
