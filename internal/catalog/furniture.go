package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/buildtall-systems/pidebot/internal/layout"
)

// Any matches every style or room type.
const Any = "any"

const (
	StyleModern  = "modern"
	StyleClassic = "classic"
)

const (
	RoomBedroom    = "bedroom"
	RoomLivingRoom = "living_room"
	RoomDiningRoom = "dining_room"
	RoomOffice     = "office"
)

const (
	CategoryBed         = "bed"
	CategoryNightstand  = "nightstand"
	CategoryWardrobe    = "wardrobe"
	CategorySofa        = "sofa"
	CategoryCoffeeTable = "coffee_table"
	CategoryTVUnit      = "tv_unit"
	CategoryDiningTable = "dining_table"
	CategoryChair       = "chair"
	CategoryDesk        = "desk"
	CategoryOfficeChair = "office_chair"
	CategoryLighting    = "lighting"
	CategoryDecor       = "decor"
	CategoryArt         = "art"
)

type FurnitureItem struct {
	ID          string
	Name        string
	Category    string
	Style       string
	RoomType    string
	Price       decimal.Decimal
	Footprint   layout.Footprint
	Description string
}

// LayoutItem converts the entry into placer input.
func (f FurnitureItem) LayoutItem() layout.Item {
	return layout.Item{
		Ref:       f.ID,
		Name:      f.Name,
		Category:  f.Category,
		Footprint: f.Footprint,
		Price:     f.Price,
	}
}

// Filter narrows ListBy. Empty or Any fields match everything; a zero
// MaxPrice means no limit.
type Filter struct {
	Style    string
	RoomType string
	MaxPrice decimal.Decimal
}

type Furniture struct {
	items []FurnitureItem
}

func NewFurniture(items []FurnitureItem) *Furniture {
	return &Furniture{items: items}
}

func piece(id, name, category, style, room, price string, w, l, h float64, desc string) FurnitureItem {
	return FurnitureItem{
		ID:          id,
		Name:        name,
		Category:    category,
		Style:       style,
		RoomType:    room,
		Price:       decimal.RequireFromString(price),
		Footprint:   layout.Footprint{Width: w, Length: l, Height: h},
		Description: desc,
	}
}

// DefaultFurniture returns the demo furniture catalog.
func DefaultFurniture() *Furniture {
	return NewFurniture([]FurnitureItem{
		piece("bed_modern_1", "Platform King Bed", CategoryBed, StyleModern, RoomBedroom, "1200", 2.0, 2.2, 0.4, "Minimalist bed with a low headboard"),
		piece("nightstand_modern_1", "Floating Nightstand", CategoryNightstand, StyleModern, RoomBedroom, "180", 0.5, 0.3, 0.15, "Wall-mounted table with a hidden drawer"),
		piece("wardrobe_modern_1", "Minimalist Wardrobe", CategoryWardrobe, StyleModern, RoomBedroom, "800", 2.5, 0.6, 2.4, "Wardrobe with sliding doors"),
		piece("bed_classic_1", "Carved Colonial Bed", CategoryBed, StyleClassic, RoomBedroom, "1800", 2.0, 2.2, 1.2, "Solid wood bed with a carved headboard"),
		piece("nightstand_classic_1", "Vintage Dresser", CategoryNightstand, StyleClassic, RoomBedroom, "320", 0.6, 0.4, 0.7, "Nightstand with three drawers"),
		piece("sofa_modern_1", "L Sectional Sofa", CategorySofa, StyleModern, RoomLivingRoom, "1500", 2.8, 2.2, 0.8, "Grey fabric corner sofa"),
		piece("coffee_table_modern_1", "Glass Coffee Table", CategoryCoffeeTable, StyleModern, RoomLivingRoom, "400", 1.2, 0.6, 0.4, "Tempered glass on a metal base"),
		piece("tv_unit_modern_1", "Floating TV Unit", CategoryTVUnit, StyleModern, RoomLivingRoom, "600", 1.8, 0.4, 0.5, "Wall-mounted unit with compartments"),
		piece("dining_table_modern_1", "Extendable Dining Table", CategoryDiningTable, StyleModern, RoomDiningRoom, "900", 1.6, 0.9, 0.75, "Seats six to eight, extendable"),
		piece("dining_chair_modern_1", "Upholstered Dining Chair", CategoryChair, StyleModern, RoomDiningRoom, "120", 0.5, 0.5, 0.9, "High back, grey upholstery"),
		piece("desk_modern_1", "Executive Desk", CategoryDesk, StyleModern, RoomOffice, "700", 1.6, 0.8, 0.75, "Desk with drawers and cable management"),
		piece("office_chair_modern_1", "Ergonomic Chair", CategoryOfficeChair, StyleModern, RoomOffice, "450", 0.6, 0.6, 1.1, "Adjustable lumbar support"),
		piece("lamp_modern_1", "LED Floor Lamp", CategoryLighting, StyleModern, Any, "200", 0.3, 0.3, 1.6, "Dimmable minimalist LED lamp"),
		piece("plant_decor_1", "Large Potted Plant", CategoryDecor, Any, Any, "80", 0.4, 0.4, 1.2, "Monstera in a ceramic pot"),
		piece("artwork_modern_1", "Large Abstract Print", CategoryArt, StyleModern, Any, "150", 1.0, 0.05, 0.8, "Framed abstract art, 100x80cm"),
	})
}

func (c *Furniture) All() []FurnitureItem {
	out := make([]FurnitureItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Furniture) ListBy(f Filter) []FurnitureItem {
	var out []FurnitureItem
	for _, it := range c.items {
		if f.Style != "" && f.Style != Any && it.Style != f.Style && it.Style != Any {
			continue
		}
		if f.RoomType != "" && f.RoomType != Any && it.RoomType != f.RoomType && it.RoomType != Any {
			continue
		}
		if f.MaxPrice.IsPositive() && it.Price.GreaterThan(f.MaxPrice) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Styles lists the distinct concrete styles in catalog order.
func (c *Furniture) Styles() []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range c.items {
		if it.Style == Any || seen[it.Style] {
			continue
		}
		seen[it.Style] = true
		out = append(out, it.Style)
	}
	return out
}
