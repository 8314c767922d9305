package templates

import (
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// typeColors maps a type name to its badge colour.
var typeColors = map[string]string{
	"fire":     "#ef4444",
	"water":    "#3b82f6",
	"grass":    "#22c55e",
	"electric": "#eab308",
	"psychic":  "#ec4899",
	"ice":      "#22d3ee",
	"dragon":   "#9333ea",
	"dark":     "#1f2937",
	"fighting": "#b91c1c",
	"poison":   "#a855f7",
	"ground":   "#ca8a04",
	"flying":   "#818cf8",
	"bug":      "#4ade80",
	"rock":     "#a16207",
	"ghost":    "#7e22ce",
	"steel":    "#6b7280",
	"fairy":    "#f9a8d4",
	"normal":   "#9ca3af",
}

// TypeNames lists the selectable type filters in display order.
var TypeNames = []string{
	"normal", "fire", "water", "grass", "electric", "ice", "fighting", "poison", "ground",
	"flying", "psychic", "bug", "rock", "ghost", "dragon", "dark", "steel", "fairy",
}

// TypeColor returns the badge colour for a type, falling back to the normal-type grey.
func TypeColor(name string) string {
	if colour, ok := typeColors[strings.ToLower(name)]; ok {
		return colour
	}
	return typeColors["normal"]
}

// PaddedNumber renders an id as #001.
func PaddedNumber(id int) string {
	return fmt.Sprintf("#%03d", id)
}

// StatPercent scales a base stat against 150, capped at 100.
func StatPercent(value int) int {
	if value <= 0 {
		return 0
	}
	return min(value*100/150, 100)
}

// writer collects the first write error so components can emit markup without
// checking every call.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, s)
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) printf(format string, args ...any) {
	w.raw(fmt.Sprintf(format, args...))
}
