package engine

import "time"

// Point is one recorded price.
type Point struct {
	At    time.Time `json:"time"`
	Price float64   `json:"price"`
}

// History is a bounded price series that drops its oldest point once full.
type History struct {
	cap    int
	points []Point
}

// NewHistory creates an empty history holding at most capacity points.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{cap: capacity, points: make([]Point, 0, capacity)}
}

// Append records a point, trimming the oldest one past capacity.
func (h *History) Append(at time.Time, price float64) {
	if len(h.points) >= h.cap {
		copy(h.points, h.points[1:])
		h.points = h.points[:len(h.points)-1]
	}
	h.points = append(h.points, Point{At: at, Price: price})
}

// Last returns the most recent point.
func (h *History) Last() (Point, bool) {
	if len(h.points) == 0 {
		return Point{}, false
	}
	return h.points[len(h.points)-1], true
}

// Len returns the number of recorded points.
func (h *History) Len() int { return len(h.points) }

// Cap returns the capacity.
func (h *History) Cap() int { return h.cap }

// Points returns a copy of the series, oldest first.
func (h *History) Points() []Point {
	out := make([]Point, len(h.points))
	copy(out, h.points)
	return out
}

// Replace overwrites the series, keeping only the newest points that fit.
func (h *History) Replace(points []Point) {
	if len(points) > h.cap {
		points = points[len(points)-h.cap:]
	}
	h.points = append(h.points[:0], points...)
}
