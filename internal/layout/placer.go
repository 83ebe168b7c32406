// Package layout places furniture footprints inside a rectangular room with
// a first-fit grid scan.
package layout

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

const (
	DefaultGridStep   = 0.5
	DefaultClearance  = 0.3
	DefaultWallMargin = 0.2

	epsilon = 1e-9
)

type Room struct {
	Width  float64
	Length float64
}

// Area returns zero for rooms with a non-positive side.
func (r Room) Area() float64 {
	if !r.Valid() {
		return 0
	}
	return r.Width * r.Length
}

func (r Room) Valid() bool {
	return r.Width > 0 && r.Length > 0
}

type Footprint struct {
	Width  float64
	Length float64
	Height float64
}

func (f Footprint) Area() float64 {
	return f.Width * f.Length
}

// Item is a catalog entry to be placed.
type Item struct {
	Ref       string
	Name      string
	Category  string
	Footprint Footprint
	Price     decimal.Decimal
}

// Placement is an item fixed at (X, Y), its corner nearest the origin.
type Placement struct {
	Item     Item
	X        float64
	Y        float64
	Rotation int
}

type Result struct {
	Room         Room
	Placed       []Placement
	Dropped      []Item
	OccupiedArea float64
	// Efficiency is OccupiedArea over room area, between 0 and 1.
	Efficiency float64
}

type Options struct {
	GridStep   float64
	Clearance  float64
	WallMargin float64
}

type Placer struct {
	step      float64
	clearance float64
	margin    float64
}

func NewPlacer(opts Options) *Placer {
	if opts.GridStep <= 0 {
		opts.GridStep = DefaultGridStep
	}
	if opts.Clearance < 0 {
		opts.Clearance = DefaultClearance
	}
	if opts.WallMargin < 0 {
		opts.WallMargin = DefaultWallMargin
	}
	return &Placer{step: opts.GridStep, clearance: opts.Clearance, margin: opts.WallMargin}
}

// DefaultPlacer uses the standard grid step, clearance and wall margin.
func DefaultPlacer() *Placer {
	return NewPlacer(Options{
		GridStep:   DefaultGridStep,
		Clearance:  DefaultClearance,
		WallMargin: DefaultWallMargin,
	})
}

// Place puts the largest footprints first. Each item takes the first grid
// position, scanning x then y, whose clearance-expanded footprint does not
// overlap an earlier one. Items without a position are returned in Dropped.
func (p *Placer) Place(room Room, items []Item) Result {
	res := Result{Room: room}
	if !room.Valid() {
		return res
	}

	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Footprint.Area() > sorted[j].Footprint.Area()
	})

	for _, item := range sorted {
		x, y, ok := p.findPosition(room, item.Footprint, res.Placed)
		if !ok {
			res.Dropped = append(res.Dropped, item)
			continue
		}
		res.Placed = append(res.Placed, Placement{Item: item, X: x, Y: y})
		res.OccupiedArea += item.Footprint.Area()
	}

	res.Efficiency = res.OccupiedArea / room.Area()
	return res
}

func (p *Placer) findPosition(room Room, fp Footprint, placed []Placement) (float64, float64, bool) {
	if fp.Width <= 0 || fp.Length <= 0 {
		return 0, 0, false
	}
	nx := p.steps(room.Width - fp.Width - 2*p.margin)
	ny := p.steps(room.Length - fp.Length - 2*p.margin)
	if nx < 0 || ny < 0 {
		return 0, 0, false
	}

	// Index-based coordinates keep the grid free of accumulated float drift.
	for i := 0; i <= nx; i++ {
		x := p.margin + float64(i)*p.step
		for j := 0; j <= ny; j++ {
			y := p.margin + float64(j)*p.step
			if !p.conflicts(x, y, fp, placed) {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}

// steps returns the last grid index within span, or -1 when the item does
// not fit at all.
func (p *Placer) steps(span float64) int {
	if span < -epsilon {
		return -1
	}
	return int(math.Floor(span/p.step + epsilon))
}

func (p *Placer) conflicts(x, y float64, fp Footprint, placed []Placement) bool {
	c := p.clearance
	for _, pl := range placed {
		other := pl.Item.Footprint
		if x < pl.X+other.Width+c-epsilon &&
			pl.X < x+fp.Width+c-epsilon &&
			y < pl.Y+other.Length+c-epsilon &&
			pl.Y < y+fp.Length+c-epsilon {
			return true
		}
	}
	return false
}
