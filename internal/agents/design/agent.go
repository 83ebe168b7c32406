// Package design proposes furnished room layouts within a budget.
package design

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/buildtall-systems/pidebot/internal/catalog"
	"github.com/buildtall-systems/pidebot/internal/layout"
	"github.com/buildtall-systems/pidebot/internal/prompts"
)

var (
	ErrUnknownRoomType   = errors.New("unsupported room type")
	ErrInvalidDimensions = errors.New("invalid room dimensions")
	ErrRoomTooSmall      = errors.New("room too small")
	ErrInvalidBudget     = errors.New("budget must be positive")
	ErrNoFurniture       = errors.New("no furniture fits the style and budget")
)

// chairsPerTable is how many chairs go with a required table.
const chairsPerTable = 4

var (
	dimensionsRe  = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*m?\s*[x×]\s*(\d+(?:\.\d+)?)\s*m?\s*$`)
	optionalFloor = decimal.NewFromInt(200)
	halfBudget    = decimal.RequireFromString("0.5")
)

// MaxRoomSide is the longest wall, in meters, ParseDimensions accepts.
const MaxRoomSide = 100.0

// ParseDimensions reads "4x5m" style room sizes, width first.
func ParseDimensions(s string) (layout.Room, error) {
	m := dimensionsRe.FindStringSubmatch(s)
	if m == nil {
		return layout.Room{}, fmt.Errorf("%q: %w", s, ErrInvalidDimensions)
	}
	var side [2]float64
	for i, raw := range m[1:] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return layout.Room{}, fmt.Errorf("%q: %w", s, ErrInvalidDimensions)
		}
		if v > MaxRoomSide {
			return layout.Room{}, fmt.Errorf("%q: side over %gm: %w", s, MaxRoomSide, ErrInvalidDimensions)
		}
		side[i] = v
	}
	room := layout.Room{Width: side[0], Length: side[1]}
	if !room.Valid() {
		return layout.Room{}, fmt.Errorf("%q: %w", s, ErrInvalidDimensions)
	}
	return room, nil
}

type Request struct {
	RoomType     string
	Dimensions   string
	Style        string
	Budget       decimal.Decimal
	Requirements []string // categories the customer wants even when optional
}

// ShoppingLine is one catalog item with its quantity.
type ShoppingLine struct {
	ItemID      string
	Name        string
	Category    string
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
	Description string
	Footprint   layout.Footprint
}

type Design struct {
	ID              string
	RoomType        string
	Style           string
	Room            layout.Room
	Furniture       []catalog.FurnitureItem
	Layout          layout.Result
	Shopping        []ShoppingLine
	TotalCost       decimal.Decimal
	Budget          decimal.Decimal
	Remaining       decimal.Decimal
	Recommendations []string
	CreatedAt       time.Time
}

type Agent struct {
	furniture *catalog.Furniture
	placer    *layout.Placer
	templates map[string]Template
	prompts   *prompts.Manager
	now       func() time.Time

	mu      sync.Mutex
	history []Design
}

type Options struct {
	Templates map[string]Template
	Now       func() time.Time
}

func New(furniture *catalog.Furniture, placer *layout.Placer, pm *prompts.Manager, opts Options) *Agent {
	if opts.Templates == nil {
		opts.Templates = DefaultTemplates()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if placer == nil {
		placer = layout.DefaultPlacer()
	}
	if pm == nil {
		pm = prompts.NewManager()
	}
	return &Agent{furniture: furniture, placer: placer, templates: opts.Templates, prompts: pm, now: opts.Now}
}

// RoomTypes lists the supported template names.
func (a *Agent) RoomTypes() []string {
	return templateNames(a.templates)
}

// Generate furnishes and lays out a room.
func (a *Agent) Generate(ctx context.Context, req Request) (Design, error) {
	if err := ctx.Err(); err != nil {
		return Design{}, err
	}
	room, err := ParseDimensions(req.Dimensions)
	if err != nil {
		return Design{}, err
	}
	tmpl, ok := a.templates[req.RoomType]
	if !ok {
		return Design{}, fmt.Errorf("%q (available: %s): %w", req.RoomType, strings.Join(a.RoomTypes(), ", "), ErrUnknownRoomType)
	}
	if room.Width < tmpl.MinWidth || room.Length < tmpl.MinLength {
		return Design{}, fmt.Errorf("%s needs at least %.1fx%.1fm: %w", tmpl.Name, tmpl.MinWidth, tmpl.MinLength, ErrRoomTooSmall)
	}
	if !req.Budget.IsPositive() {
		return Design{}, ErrInvalidBudget
	}
	if req.Style == "" {
		req.Style = catalog.Any
	}

	available := a.furniture.ListBy(catalog.Filter{
		Style:    req.Style,
		RoomType: tmpl.RoomType,
		MaxPrice: req.Budget.Mul(halfBudget),
	})
	if len(available) == 0 {
		return Design{}, fmt.Errorf("%s %s under %s: %w", req.Style, tmpl.Name, req.Budget.StringFixed(2), ErrNoFurniture)
	}

	selected := selectFurniture(available, tmpl, req.Budget, req.Requirements)
	items := make([]layout.Item, len(selected))
	for i, f := range selected {
		items[i] = f.LayoutItem()
	}
	result := a.placer.Place(room, items)

	total := decimal.Zero
	for _, f := range selected {
		total = total.Add(f.Price)
	}
	remaining := req.Budget.Sub(total)

	d := Design{
		RoomType:        tmpl.Name,
		Style:           req.Style,
		Room:            room,
		Furniture:       selected,
		Layout:          result,
		Shopping:        shoppingList(selected),
		TotalCost:       total,
		Budget:          req.Budget,
		Remaining:       remaining,
		Recommendations: recommendations(result, room, remaining),
		CreatedAt:       a.now(),
	}

	a.mu.Lock()
	d.ID = fmt.Sprintf("DESIGN-%04d", len(a.history)+1)
	a.history = append(a.history, d)
	a.mu.Unlock()

	log.Printf("design: %s %s %s, %d placed, %d dropped, cost %s", d.ID, d.Style, d.RoomType, len(result.Placed), len(result.Dropped), total.StringFixed(2))
	return d, nil
}

// History returns generated designs, oldest first.
func (a *Agent) History() []Design {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Design, len(a.history))
	copy(out, a.history)
	return out
}

func selectFurniture(available []catalog.FurnitureItem, tmpl Template, budget decimal.Decimal, wanted []string) []catalog.FurnitureItem {
	byCategory := make(map[string][]catalog.FurnitureItem)
	for _, f := range available {
		byCategory[f.Category] = append(byCategory[f.Category], f)
	}
	cheapest := func(c string) []catalog.FurnitureItem {
		opts := append([]catalog.FurnitureItem(nil), byCategory[c]...)
		sort.SliceStable(opts, func(i, j int) bool { return opts[i].Price.LessThan(opts[j].Price) })
		return opts
	}

	var selected []catalog.FurnitureItem
	remaining := budget

	for _, c := range tmpl.Required {
		n := 1
		if c == catalog.CategoryChair {
			n = chairsPerTable
		}
		for _, opt := range cheapest(c) {
			cost := opt.Price.Mul(decimal.NewFromInt(int64(n)))
			if cost.LessThanOrEqual(remaining) {
				for i := 0; i < n; i++ {
					selected = append(selected, opt)
				}
				remaining = remaining.Sub(cost)
				break
			}
		}
	}

	pick := func(c string) {
		opts := cheapest(c)
		for i := len(opts) - 1; i >= 0; i-- {
			if opts[i].Price.LessThanOrEqual(remaining) {
				selected = append(selected, opts[i])
				remaining = remaining.Sub(opts[i].Price)
				return
			}
		}
	}

	done := make(map[string]bool)
	// Requested extras first, without the optional spending floor.
	for _, c := range wanted {
		c = strings.ToLower(strings.TrimSpace(c))
		if tmpl.requires(c) || done[c] {
			continue
		}
		done[c] = true
		pick(c)
	}
	for _, c := range tmpl.Optional {
		if done[c] || !remaining.GreaterThan(optionalFloor) {
			continue
		}
		pick(c)
	}
	return selected
}

func shoppingList(items []catalog.FurnitureItem) []ShoppingLine {
	var lines []ShoppingLine
	index := make(map[string]int)
	for _, f := range items {
		if i, ok := index[f.ID]; ok {
			lines[i].Quantity++
			lines[i].Total = lines[i].Total.Add(f.Price)
			continue
		}
		index[f.ID] = len(lines)
		lines = append(lines, ShoppingLine{
			ItemID:      f.ID,
			Name:        f.Name,
			Category:    f.Category,
			Quantity:    1,
			UnitPrice:   f.Price,
			Total:       f.Price,
			Description: f.Description,
			Footprint:   f.Footprint,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Category != lines[j].Category {
			return lines[i].Category < lines[j].Category
		}
		return lines[i].Total.GreaterThan(lines[j].Total)
	})
	return lines
}

func recommendations(res layout.Result, room layout.Room, remaining decimal.Decimal) []string {
	var out []string

	switch eff := res.Efficiency * 100; {
	case eff < 15:
		out = append(out, "The space is underused. Consider adding more furniture or decor.")
	case eff > 60:
		out = append(out, "The space is crowded. Consider removing a few pieces.")
	default:
		out = append(out, "The space is well balanced.")
	}

	switch {
	case remaining.GreaterThan(decimal.NewFromInt(500)):
		out = append(out, fmt.Sprintf("You have $%s left. Consider extra lighting or art.", remaining.StringFixed(0)))
	case remaining.GreaterThan(decimal.NewFromInt(200)):
		out = append(out, fmt.Sprintf("With $%s left you could add plants or decorative accents.", remaining.StringFixed(0)))
	case remaining.IsNegative():
		out = append(out, fmt.Sprintf("You are $%s over budget. Consider cheaper options.", remaining.Neg().StringFixed(0)))
	}

	switch area := room.Area(); {
	case area > 20:
		out = append(out, "For a large room, define zones with rugs.")
	case area < 10:
		out = append(out, "For a small room, use multi-purpose furniture and light colors.")
	}

	if len(res.Placed) < 3 {
		out = append(out, "Add a few more pieces to make the room feel cozier.")
	}
	return out
}

// Summary renders a design for chat.
func (a *Agent) Summary(d Design) string {
	lines := make([]prompts.FurnitureLine, len(d.Shopping))
	for i, l := range d.Shopping {
		lines[i] = prompts.FurnitureLine{Name: l.Name, Quantity: l.Quantity, Total: l.Total.StringFixed(2)}
	}
	text := a.prompts.MustRender("design_proposal", map[string]any{
		"design_id":       d.ID,
		"style":           d.Style,
		"room_type":       strings.ReplaceAll(d.RoomType, "_", " "),
		"dimensions":      fmt.Sprintf("%gx%gm", d.Room.Width, d.Room.Length),
		"total_cost":      d.TotalCost.StringFixed(2),
		"budget":          d.Budget.StringFixed(2),
		"remaining":       d.Remaining.StringFixed(2),
		"efficiency":      fmt.Sprintf("%.1f", d.Layout.Efficiency*100),
		"furniture_list":  prompts.FormatFurniture(lines),
		"recommendations": prompts.FormatList(d.Recommendations, prompts.Bullet),
	})
	if len(d.Layout.Dropped) > 0 {
		names := make([]string, len(d.Layout.Dropped))
		for i, it := range d.Layout.Dropped {
			names[i] = it.Name
		}
		text += "\n\nDid not fit: " + strings.Join(names, ", ")
	}
	return text
}

// StyleEstimate is the cheapest way to furnish a room in one style.
type StyleEstimate struct {
	Style        string
	MinCost      decimal.Decimal
	WithinBudget bool
	Options      int
	Missing      []string // required categories with no item in this style
}

type Suggestion struct {
	RoomType  string
	Budget    decimal.Decimal
	Template  Template
	Estimates []StyleEstimate
}

// Suggestions estimates the minimum spend per style for a room type.
func (a *Agent) Suggestions(roomType string, budget decimal.Decimal) (Suggestion, error) {
	tmpl, ok := a.templates[roomType]
	if !ok {
		return Suggestion{}, fmt.Errorf("%q: %w", roomType, ErrUnknownRoomType)
	}
	s := Suggestion{RoomType: roomType, Budget: budget, Template: tmpl}
	for _, style := range a.furniture.Styles() {
		items := a.furniture.ListBy(catalog.Filter{Style: style, RoomType: tmpl.RoomType})
		est := StyleEstimate{Style: style, MinCost: decimal.Zero, Options: len(items)}
		for _, c := range tmpl.Required {
			var low *decimal.Decimal
			for _, it := range items {
				if it.Category == c && (low == nil || it.Price.LessThan(*low)) {
					p := it.Price
					low = &p
				}
			}
			if low == nil {
				est.Missing = append(est.Missing, c)
				continue
			}
			if c == catalog.CategoryChair {
				est.MinCost = est.MinCost.Add(low.Mul(decimal.NewFromInt(chairsPerTable)))
			} else {
				est.MinCost = est.MinCost.Add(*low)
			}
		}
		est.WithinBudget = len(est.Missing) == 0 && est.MinCost.LessThanOrEqual(budget)
		s.Estimates = append(s.Estimates, est)
	}
	return s, nil
}

// SuggestionText renders Suggestions for chat.
func (a *Agent) SuggestionText(s Suggestion) string {
	opts := make([]string, len(s.Estimates))
	for i, e := range s.Estimates {
		line := fmt.Sprintf("%s: from $%s, %d pieces to choose from", e.Style, e.MinCost.StringFixed(0), e.Options)
		switch {
		case len(e.Missing) > 0:
			line += " (no " + strings.Join(e.Missing, ", ") + " in this style)"
		case e.WithinBudget:
			line += " (within budget)"
		default:
			line += " (over budget)"
		}
		opts[i] = line
	}
	return a.prompts.MustRender("design_style_suggestions", map[string]any{
		"room_type":     strings.ReplaceAll(s.RoomType, "_", " "),
		"budget":        s.Budget.StringFixed(0),
		"style_options": prompts.FormatList(opts, prompts.Bullet),
	})
}

var designKeywords = []string{
	"design", "furnish", "furniture", "decorate", "interior", "layout",
	"diseño", "diseñar", "amueblar", "muebles", "decorar",
}

// IsDesign reports whether text asks for room design help.
func IsDesign(text string) bool {
	t := strings.ToLower(text)
	for _, k := range designKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}
