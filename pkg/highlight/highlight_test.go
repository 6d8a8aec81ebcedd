package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMove(t *testing.T) {
	testCases := []struct {
		current, delta, length int
		expected               int
		description            string
	}{
		{None, -1, 3, 2, "up from none wraps to last"},
		{None, 1, 3, 0, "down from none lands on first"},
		{2, 1, 3, 0, "down past last wraps to first"},
		{0, -1, 3, 2, "up past first wraps to last"},
		{0, 1, 3, 1, "plain step down"},
		{2, -1, 3, 1, "plain step up"},
		{0, 5, 3, 2, "large positive delta"},
		{1, -7, 3, 0, "large negative delta"},
		{None, -2, 3, 1, "multi step up from none"},
		{None, 2, 3, 1, "multi step down from none"},
		{1, 0, 3, 1, "zero delta keeps index"},
		{None, 0, 3, None, "zero delta keeps none"},
		{None, 1, 0, None, "empty list"},
		{2, 1, 0, None, "empty list ignores current"},
		{5, 1, 3, 0, "stale out of range index treated as none"},
		{0, 1, 1, 0, "single item wraps onto itself"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expected, Move(tc.current, tc.delta, tc.length))
		})
	}
}

func TestNavigate(t *testing.T) {
	assert.Equal(t, 2, Navigate(None, DirectionUp, 3))
	assert.Equal(t, 0, Navigate(None, DirectionDown, 3))
	assert.Equal(t, 0, Navigate(2, DirectionHome, 3))
	assert.Equal(t, 2, Navigate(0, DirectionEnd, 3))
	assert.Equal(t, None, Navigate(0, DirectionEnd, 0))
	assert.Equal(t, 1, Navigate(1, Direction("left"), 3))
}

func TestSet(t *testing.T) {
	assert.Equal(t, 2, Set(0, 2, 3))
	assert.Equal(t, None, Set(1, None, 3))
	assert.Equal(t, None, Set(None, None, 0), "-1 is valid for empty lists")
	assert.Equal(t, 1, Set(1, 3, 3), "out of range ignored")
	assert.Equal(t, 1, Set(1, -2, 3), "below -1 ignored")
}

func TestClamp(t *testing.T) {
	assert.Equal(t, None, Clamp(2, 2), "list shrank under the highlight")
	assert.Equal(t, 1, Clamp(1, 2))
	assert.Equal(t, None, Clamp(None, 5))
	assert.Equal(t, None, Clamp(0, 0))
}
