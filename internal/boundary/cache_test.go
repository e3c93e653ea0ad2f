package boundary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kr4t0z/chrono-server/internal/activity"
)

func TestDecisionCache_Bounded(t *testing.T) {
	c := NewBoundedDecisionCache(time.Hour, 2)
	merge := activity.BoundaryDecision{ShouldMerge: true, Confidence: 0.8, Reason: "same task"}

	c.Set("notion|linear", merge)
	c.Set("linear|notion", merge)
	c.Set("figma|slack", merge)
	assert.Equal(t, 2, c.Len())

	_, ok := c.Get("figma|slack")
	assert.False(t, ok, "writes beyond the bound are dropped")

	// Existing keys can still be refreshed when full.
	split := activity.BoundaryDecision{Confidence: 0.9, Reason: "different task"}
	c.Set("notion|linear", split)
	got, ok := c.Get("notion|linear")
	assert.True(t, ok)
	assert.Equal(t, split, got)
}

func TestDecisionCache_FullPurgesExpired(t *testing.T) {
	c := NewBoundedDecisionCache(20*time.Millisecond, 1)
	c.Set("notion|linear", activity.BoundaryDecision{ShouldMerge: true, Confidence: 0.8})
	time.Sleep(40 * time.Millisecond)

	c.Set("figma|slack", activity.BoundaryDecision{Confidence: 0.9})
	_, ok := c.Get("figma|slack")
	assert.True(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestDecisionCache_Defaults(t *testing.T) {
	c := NewDecisionCache(0)
	assert.Equal(t, DefaultMaxDecisions, c.maxEntries)
	assert.Equal(t, 0, c.Len())
}
