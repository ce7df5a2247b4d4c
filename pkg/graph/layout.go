package graph

import "strings"

// Direction is the layout direction hint passed to the layout oracle.
type Direction string

// Layout directions.
const (
	DirectionRight Direction = "RIGHT"
	DirectionLeft  Direction = "LEFT"
	DirectionDown  Direction = "DOWN"
	DirectionUp    Direction = "UP"
)

// DefaultDirection is used for missing or unrecognized arrange values.
const DefaultDirection = DirectionRight

// ParseArrange maps a document arrange value to a Direction:
// LR→RIGHT, RL→LEFT, TB→DOWN, BT→UP. Anything else yields DefaultDirection.
func ParseArrange(arrange string) Direction {
	switch strings.ToUpper(strings.TrimSpace(arrange)) {
	case "RL":
		return DirectionLeft
	case "TB":
		return DirectionDown
	case "BT":
		return DirectionUp
	default:
		return DefaultDirection
	}
}

// Arrange returns the arrange value for d.
func (d Direction) Arrange() string {
	switch d {
	case DirectionLeft:
		return "RL"
	case DirectionDown:
		return "TB"
	case DirectionUp:
		return "BT"
	default:
		return "LR"
	}
}

// Horizontal reports whether layers advance along the x axis.
func (d Direction) Horizontal() bool {
	return d != DirectionDown && d != DirectionUp
}

// Reversed reports whether layers advance towards negative coordinates.
func (d Direction) Reversed() bool {
	return d == DirectionLeft || d == DirectionUp
}
