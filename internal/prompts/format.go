package prompts

import (
	"fmt"
	"strings"

	"github.com/buildtall-systems/pidebot/internal/catalog"
)

type ListStyle int

const (
	Bullet ListStyle = iota
	Numbered
	Plain
)

// FormatList joins items one per line.
func FormatList(items []string, style ListStyle) string {
	lines := make([]string, len(items))
	for i, it := range items {
		switch style {
		case Bullet:
			lines[i] = "• " + it
		case Numbered:
			lines[i] = fmt.Sprintf("%d. %s", i+1, it)
		default:
			lines[i] = it
		}
	}
	return strings.Join(lines, "\n")
}

func FormatRestaurants(list []catalog.Restaurant) string {
	lines := make([]string, len(list))
	for i, r := range list {
		lines[i] = fmt.Sprintf("%s (%s) ★ %.1f, %d min, %s", r.Name, strings.Join(r.Cuisines, "/"), r.Rating, r.DeliveryMinutes, r.Price)
	}
	return FormatList(lines, Numbered)
}

func FormatMenu(items []catalog.Product) string {
	lines := make([]string, len(items))
	for i, p := range items {
		lines[i] = fmt.Sprintf("%s - $%s", p.Name, p.Price.StringFixed(2))
	}
	return FormatList(lines, Bullet)
}

// FurnitureLine is one shopping list entry.
type FurnitureLine struct {
	Name     string
	Quantity int
	Total    string
}

func FormatFurniture(lines []FurnitureLine) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		s := l.Name
		if l.Quantity > 1 {
			s += fmt.Sprintf(" (x%d)", l.Quantity)
		}
		if l.Total != "" {
			s += " - $" + l.Total
		}
		out[i] = s
	}
	return FormatList(out, Bullet)
}
