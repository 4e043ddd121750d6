package submission

import (
	"github.com/shopspring/decimal"
)

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type City struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Currency struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
}

// Tier is a monetization package. A zero price means the free tier.
type Tier struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	CurrencyID   string          `json:"currency_id"`
	DurationDays int             `json:"duration_days"`
	AllowsImage  bool            `json:"has_photo"`
}

func (t Tier) IsFree() bool {
	return !t.Price.IsPositive()
}

// Catalog is the read-only reference data a workflow is built with.
type Catalog struct {
	Categories     []Category
	Cities         []City
	Currencies     []Currency
	Tiers          []Tier
	CategoryByType map[PostType]string
}

func (c *Catalog) City(id string) (City, bool) {
	for _, city := range c.Cities {
		if city.ID == id {
			return city, true
		}
	}
	return City{}, false
}

func (c *Catalog) Currency(id string) (Currency, bool) {
	for _, cur := range c.Currencies {
		if cur.ID == id {
			return cur, true
		}
	}
	return Currency{}, false
}

func (c *Catalog) Tier(id string) (Tier, bool) {
	for _, t := range c.Tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// CategoryFor resolves the category a post type is filed under.
// The mapped id must also be present in Categories.
func (c *Catalog) CategoryFor(postType PostType) (Category, bool) {
	id, ok := c.CategoryByType[postType]
	if !ok || id == "" {
		return Category{}, false
	}
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}
