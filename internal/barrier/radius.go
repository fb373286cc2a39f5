package barrier

import (
	"fmt"
	"strings"
)

// Category groups resonances that share one barrier radius.
type Category int

const (
	Parent Category = iota
	Indep
	Light
	Kstar
	Charm
	StrangeCharm
	Charmonium
	Beauty
	StrangeBeauty
	CharmBeauty
	Custom1
	Custom2
	Custom3
	Custom4
)

var categoryNames = [...]string{
	Parent:        "parent",
	Indep:         "indep",
	Light:         "light",
	Kstar:         "kstar",
	Charm:         "charm",
	StrangeCharm:  "strangecharm",
	Charmonium:    "charmonium",
	Beauty:        "beauty",
	StrangeBeauty: "strangebeauty",
	CharmBeauty:   "charmbeauty",
	Custom1:       "custom1",
	Custom2:       "custom2",
	Custom3:       "custom3",
	Custom4:       "custom4",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory maps a case-insensitive name to a Category.
func ParseCategory(name string) (Category, error) {
	lower := strings.ToLower(name)
	for i, n := range categoryNames {
		if n == lower {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// DefaultRadius is the radius, in GeV⁻¹, given to every category that has
// no explicit value.
const DefaultRadius = 4.0

// RadiusHandle indexes a radius slot in a Radii arena.
type RadiusHandle int

// Radii is the arena of barrier radius values. Every resonance of a
// category holds the same handle, so setting the value once updates all of
// them. Indep resonances each get a private slot.
type Radii struct {
	values   []float64
	fixed    []bool
	names    []string
	byCat    map[Category]RadiusHandle
	defaults map[Category]float64
}

// NewRadii creates an empty arena whose categories start at DefaultRadius.
func NewRadii() *Radii {
	return &Radii{
		byCat:    make(map[Category]RadiusHandle),
		defaults: make(map[Category]float64),
	}
}

// SetDefault sets the starting value for a category. If the category
// already has a slot its value is updated too.
func (r *Radii) SetDefault(cat Category, value float64) error {
	if value < 0 {
		return fmt.Errorf("%w: %g", ErrNegativeRadius, value)
	}
	r.defaults[cat] = value
	if h, ok := r.byCat[cat]; ok {
		r.values[h] = value
	}
	return nil
}

// Handle returns the shared slot for cat, allocating it on first use.
// Indep always allocates a new slot named after the caller-supplied label.
func (r *Radii) Handle(cat Category, label string) RadiusHandle {
	if cat != Indep {
		if h, ok := r.byCat[cat]; ok {
			return h
		}
	}

	value, ok := r.defaults[cat]
	if !ok {
		value = DefaultRadius
	}
	h := RadiusHandle(len(r.values))
	r.values = append(r.values, value)
	r.fixed = append(r.fixed, true)

	name := "BarrierRadius_" + cat.String()
	if cat == Indep {
		name = "BarrierRadius_" + label
	} else {
		r.byCat[cat] = h
	}
	r.names = append(r.names, name)
	return h
}

// Len returns the number of allocated slots.
func (r *Radii) Len() int { return len(r.values) }

// Value returns the radius stored in slot h.
func (r *Radii) Value(h RadiusHandle) float64 { return r.values[h] }

// Name returns the parameter name of slot h.
func (r *Radii) Name(h RadiusHandle) string { return r.names[h] }

// Set changes the radius of slot h.
func (r *Radii) Set(h RadiusHandle, value float64) error {
	if value < 0 {
		return fmt.Errorf("%w: %g", ErrNegativeRadius, value)
	}
	r.values[h] = value
	return nil
}

// Fix marks slot h as fixed (true) or floating (false).
func (r *Radii) Fix(h RadiusHandle, fixed bool) { r.fixed[h] = fixed }

// Fixed reports whether slot h is fixed.
func (r *Radii) Fixed(h RadiusHandle) bool { return r.fixed[h] }

// Snapshot copies the current slot values.
func (r *Radii) Snapshot() []float64 {
	out := make([]float64, len(r.values))
	copy(out, r.values)
	return out
}
