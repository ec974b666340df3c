// Package catalog ships the built-in demo dispatch tables: a small shapes
// domain whose registrations are declared in embedded YAML and loaded into a
// registry at startup.
package catalog

import (
	"context"
	"fmt"
	"math"

	"github.com/zjrosen/dispatch/internal/dispatch"
)

// Shape is the common interface the subtype-constrained entries target.
type Shape interface {
	Area() float64
	Perimeter() float64
}

// Circle is a circle with the given radius.
type Circle struct {
	Radius float64
}

func (c Circle) Area() float64      { return math.Pi * c.Radius * c.Radius }
func (c Circle) Perimeter() float64 { return 2 * math.Pi * c.Radius }

// Square is a square with the given side length.
type Square struct {
	Side float64
}

func (s Square) Area() float64      { return s.Side * s.Side }
func (s Square) Perimeter() float64 { return 4 * s.Side }

// Rect is an axis-aligned rectangle.
type Rect struct {
	Width  float64
	Height float64
}

func (r Rect) Area() float64      { return r.Width * r.Height }
func (r Rect) Perimeter() float64 { return 2 * (r.Width + r.Height) }

// === Built-in implementations ===
//
// Implementations are referenced by name from the YAML tables. Each assumes
// its signature's constraints already held, so the type assertions are safe.

func areaCircle(ctx context.Context, args ...any) (any, error) {
	c := args[0].(Circle)
	return c.Area(), nil
}

func areaShape(ctx context.Context, args ...any) (any, error) {
	s := args[0].(Shape)
	return s.Area(), nil
}

func perimeterShape(ctx context.Context, args ...any) (any, error) {
	s := args[0].(Shape)
	return s.Perimeter(), nil
}

func scaleCircle(ctx context.Context, args ...any) (any, error) {
	c := args[0].(Circle)
	factor := args[1].(float64)
	return Circle{Radius: c.Radius * factor}, nil
}

func scaleSquare(ctx context.Context, args ...any) (any, error) {
	s := args[0].(Square)
	factor := args[1].(float64)
	return Square{Side: s.Side * factor}, nil
}

func scaleRect(ctx context.Context, args ...any) (any, error) {
	r := args[0].(Rect)
	factor := args[1].(float64)
	return Rect{Width: r.Width * factor, Height: r.Height * factor}, nil
}

func describeShape(ctx context.Context, args ...any) (any, error) {
	s := args[0].(Shape)
	return fmt.Sprintf("%T with area %.4g and perimeter %.4g", s, s.Area(), s.Perimeter()), nil
}

func describePositive(ctx context.Context, args ...any) (any, error) {
	return fmt.Sprintf("positive number %v", args[0]), nil
}

func isNumber(arg any) bool {
	switch arg.(type) {
	case int, int64, float64:
		return true
	}
	return false
}

func isPositive(arg any) bool {
	switch n := arg.(type) {
	case int:
		return n > 0
	case int64:
		return n > 0
	case float64:
		return n > 0
	}
	return false
}

// constraintRefs resolves the constraint names usable in YAML tables.
// Subtype constraints carry the ~ prefix, matching their rendered form.
var constraintRefs = map[string]dispatch.Constraint{
	"circle":   dispatch.Exact[Circle](),
	"square":   dispatch.Exact[Square](),
	"rect":     dispatch.Exact[Rect](),
	"~shape":   dispatch.AssignableTo[Shape](),
	"float":    dispatch.Exact[float64](),
	"int":      dispatch.Exact[int](),
	"string":   dispatch.Exact[string](),
	"number":   dispatch.Satisfies("number", isNumber),
	"positive": dispatch.Satisfies("positive", isPositive),
}

// implRefs resolves the implementation names usable in YAML tables.
var implRefs = map[string]dispatch.Func{
	"area-circle":       areaCircle,
	"area-shape":        areaShape,
	"perimeter-shape":   perimeterShape,
	"scale-circle":      scaleCircle,
	"scale-square":      scaleSquare,
	"scale-rect":        scaleRect,
	"describe-shape":    describeShape,
	"describe-positive": describePositive,
}
