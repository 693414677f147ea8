package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_ForwardPath(t *testing.T) {
	path := []DrawStatus{DrawOpen, DrawLocked, DrawDrawing, DrawCalculating, DrawPaying, DrawCompleted}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, CanTransition(path[i], path[i+1]), "%s -> %s", path[i], path[i+1])
	}
}

func TestCanTransition_Reverts(t *testing.T) {
	assert.True(t, CanTransition(DrawDrawing, DrawLocked))
	assert.True(t, CanTransition(DrawCalculating, DrawLocked))
	assert.False(t, CanTransition(DrawPaying, DrawLocked))
	assert.False(t, CanTransition(DrawLocked, DrawOpen))
}

func TestCanTransition_Cancellation(t *testing.T) {
	assert.True(t, CanTransition(DrawOpen, DrawCancelled))
	assert.True(t, CanTransition(DrawLocked, DrawCancelled))
	assert.False(t, CanTransition(DrawDrawing, DrawCancelled))
	assert.False(t, CanTransition(DrawPaying, DrawCancelled))
	assert.False(t, CanTransition(DrawCompleted, DrawCancelled))
}

func TestCanTransition_NoSkipping(t *testing.T) {
	assert.False(t, CanTransition(DrawOpen, DrawDrawing))
	assert.False(t, CanTransition(DrawOpen, DrawCompleted))
	assert.False(t, CanTransition(DrawLocked, DrawCalculating))
	assert.False(t, CanTransition(DrawDrawing, DrawPaying))
}

func TestTerminal(t *testing.T) {
	assert.True(t, DrawCompleted.Terminal())
	assert.True(t, DrawCancelled.Terminal())
	for _, s := range []DrawStatus{DrawOpen, DrawLocked, DrawDrawing, DrawCalculating, DrawPaying} {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestTerminal_AdmitsNothing(t *testing.T) {
	all := []DrawStatus{DrawOpen, DrawLocked, DrawDrawing, DrawCalculating, DrawPaying, DrawCompleted, DrawCancelled}
	for _, from := range all {
		if !from.Terminal() {
			continue
		}
		for _, to := range all {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestAcceptingPurchases(t *testing.T) {
	now := time.Now().UTC()
	d := &Draw{Status: DrawOpen, SalesCloseAt: now.Add(time.Hour)}
	assert.True(t, d.AcceptingPurchases(now))

	// sales window closed
	assert.False(t, d.AcceptingPurchases(now.Add(time.Hour)))
	assert.False(t, d.AcceptingPurchases(now.Add(2*time.Hour)))

	// wrong status
	d.Status = DrawLocked
	assert.False(t, d.AcceptingPurchases(now))
}
