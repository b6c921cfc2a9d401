// Package world holds the transport network between settlements.
package world

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/talgya/medieval-sim/internal/ecs"
)

// edge is an unordered settlement pair, lower id first.
type edge struct {
	A, B ecs.EntityID
}

func key(a, b ecs.EntityID) edge {
	if b < a {
		a, b = b, a
	}
	return edge{A: a, B: b}
}

// Route is one undirected connection with its travel time in hours.
type Route struct {
	A     ecs.EntityID `json:"a"`
	B     ecs.EntityID `json:"b"`
	Hours float64      `json:"hours"`
}

// RouteBook is an undirected weighted graph of settlements.
// Missing edges have infinite weight.
type RouteBook struct {
	hours map[edge]float64
}

// NewRouteBook creates an empty route book.
func NewRouteBook() *RouteBook {
	return &RouteBook{hours: make(map[edge]float64)}
}

// Set records a route in both directions. Hours must be positive and finite.
func (rb *RouteBook) Set(a, b ecs.EntityID, hours float64) error {
	if a == b {
		return fmt.Errorf("route %d-%d: endpoints must differ", a, b)
	}
	if hours <= 0 || math.IsInf(hours, 0) || math.IsNaN(hours) {
		return fmt.Errorf("route %d-%d: invalid hours %v", a, b, hours)
	}
	rb.hours[key(a, b)] = hours
	return nil
}

// Hours returns the travel time between a and b, or +Inf without a route.
func (rb *RouteBook) Hours(a, b ecs.EntityID) float64 {
	if h, ok := rb.hours[key(a, b)]; ok {
		return h
	}
	return math.Inf(1)
}

// Connected reports whether a direct route exists.
func (rb *RouteBook) Connected(a, b ecs.EntityID) bool {
	_, ok := rb.hours[key(a, b)]
	return ok
}

// Transit returns the travel time as a duration.
func (rb *RouteBook) Transit(a, b ecs.EntityID) (time.Duration, bool) {
	h, ok := rb.hours[key(a, b)]
	if !ok {
		return 0, false
	}
	return time.Duration(h * float64(time.Hour)), true
}

// Routes lists every route ordered by endpoint ids.
func (rb *RouteBook) Routes() []Route {
	out := make([]Route, 0, len(rb.hours))
	for e, h := range rb.hours {
		out = append(out, Route{A: e.A, B: e.B, Hours: h})
	}
	slices.SortFunc(out, func(x, y Route) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})
	return out
}

// Len returns the number of routes.
func (rb *RouteBook) Len() int {
	return len(rb.hours)
}
