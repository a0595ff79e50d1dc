package knowledge

import "time"

// Category is the closed set of knowledge document categories.
type Category string

const (
	CategoryLendingProducts  Category = "lending_products"
	CategoryInvestmentInfo   Category = "investment_info"
	CategoryRealEstate       Category = "real_estate"
	CategoryLegalCompliance  Category = "legal_compliance"
	CategoryPlatformFeatures Category = "platform_features"
	CategoryFAQ              Category = "faq"
	CategoryDeals            Category = "deals"
	CategoryMarketData       Category = "market_data"
)

// Categories lists every valid category, in catalog order.
func Categories() []Category {
	return []Category{
		CategoryLendingProducts,
		CategoryInvestmentInfo,
		CategoryRealEstate,
		CategoryLegalCompliance,
		CategoryPlatformFeatures,
		CategoryFAQ,
		CategoryDeals,
		CategoryMarketData,
	}
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Document is a unit of retrievable domain knowledge.
type Document struct {
	ID        string            `json:"id"`
	Category  Category          `json:"category"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Hit is an ephemeral scored match against the catalog. Never persisted.
type Hit struct {
	DocumentID string   `json:"document_id"`
	Content    string   `json:"content"`
	Score      float64  `json:"score"`
	Category   Category `json:"category"`
	Title      string   `json:"title"`
}
