package design

import (
	"sort"

	"github.com/buildtall-systems/pidebot/internal/catalog"
)

// Template describes what a kind of room needs.
type Template struct {
	Name      string
	RoomType  string // catalog room type the furniture comes from
	Required  []string
	Optional  []string
	MinWidth  float64
	MinLength float64
}

func (t Template) requires(category string) bool {
	for _, c := range t.Required {
		if c == category {
			return true
		}
	}
	return false
}

// DefaultTemplates returns the supported room kinds keyed by name.
func DefaultTemplates() map[string]Template {
	return map[string]Template{
		"small_bedroom": {
			Name: "small_bedroom", RoomType: catalog.RoomBedroom,
			Required: []string{catalog.CategoryBed, catalog.CategoryNightstand, catalog.CategoryWardrobe},
			Optional: []string{catalog.CategoryChair, catalog.CategoryLighting, catalog.CategoryDecor},
			MinWidth: 3.0, MinLength: 3.0,
		},
		"large_bedroom": {
			Name: "large_bedroom", RoomType: catalog.RoomBedroom,
			Required: []string{catalog.CategoryBed, catalog.CategoryNightstand, catalog.CategoryWardrobe, catalog.CategoryChair},
			Optional: []string{catalog.CategoryDesk, catalog.CategoryLighting, catalog.CategoryDecor, catalog.CategoryArt},
			MinWidth: 4.0, MinLength: 4.0,
		},
		"living_room": {
			Name: "living_room", RoomType: catalog.RoomLivingRoom,
			Required: []string{catalog.CategorySofa, catalog.CategoryCoffeeTable},
			Optional: []string{catalog.CategoryTVUnit, catalog.CategoryLighting, catalog.CategoryDecor, catalog.CategoryArt},
			MinWidth: 3.5, MinLength: 3.5,
		},
		"dining_room": {
			Name: "dining_room", RoomType: catalog.RoomDiningRoom,
			Required: []string{catalog.CategoryDiningTable, catalog.CategoryChair},
			Optional: []string{catalog.CategoryLighting, catalog.CategoryDecor, catalog.CategoryArt},
			MinWidth: 3.0, MinLength: 3.0,
		},
		"office": {
			Name: "office", RoomType: catalog.RoomOffice,
			Required: []string{catalog.CategoryDesk, catalog.CategoryOfficeChair},
			Optional: []string{catalog.CategoryWardrobe, catalog.CategoryLighting, catalog.CategoryDecor},
			MinWidth: 2.5, MinLength: 2.5,
		},
	}
}

func templateNames(m map[string]Template) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
