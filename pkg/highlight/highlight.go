// Package highlight implements keyboard navigation over a suggestion list.
//
// An index is either -1 (nothing highlighted) or a position in [0, length).
// All functions are pure; the caller owns the current index.
package highlight

// None is the index meaning no suggestion is highlighted.
const None = -1

// Direction names a navigation key.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionHome Direction = "home"
	DirectionEnd  Direction = "end"
)

// Move steps current by delta, wrapping around the list in both directions.
// From None, a positive delta counts from just before the first item and a
// negative delta from just after the last, so Up from None lands on the last item.
// An empty list always yields None.
func Move(current, delta, length int) int {
	if length <= 0 {
		return None
	}
	if !Valid(current, length) {
		current = None
	}

	base := current
	if current == None && delta < 0 {
		base = length
	}
	if delta == 0 {
		return current
	}

	next := (base + delta) % length
	if next < 0 {
		next += length
	}
	return next
}

// Navigate applies a Direction to current.
func Navigate(current int, direction Direction, length int) int {
	switch direction {
	case DirectionUp:
		return Move(current, -1, length)
	case DirectionDown:
		return Move(current, 1, length)
	case DirectionHome:
		return First(length)
	case DirectionEnd:
		return Last(length)
	}
	return current
}

// Valid reports whether idx may be set for a list of length items. None is always valid.
func Valid(idx, length int) bool {
	return idx == None || (idx >= 0 && idx < length)
}

// Set returns idx when it is valid and current otherwise.
func Set(current, idx, length int) int {
	if !Valid(idx, length) {
		return current
	}
	return idx
}

// Clamp resets current to None once it no longer fits the list.
func Clamp(current, length int) int {
	if !Valid(current, length) {
		return None
	}
	return current
}

// First is the index of the first item, or None for an empty list.
func First(length int) int {
	if length <= 0 {
		return None
	}
	return 0
}

// Last is the index of the last item, or None for an empty list.
func Last(length int) int {
	if length <= 0 {
		return None
	}
	return length - 1
}
