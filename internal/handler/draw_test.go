package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonlotto/platform/internal/domain"
)

func TestPublicDraw_HidesSeedWhileRunning(t *testing.T) {
	seed := "aabbcc"
	for _, status := range []domain.DrawStatus{domain.DrawOpen, domain.DrawLocked, domain.DrawDrawing} {
		d := &domain.Draw{Status: status, ServerSeed: &seed, ServerSeedHash: "hash"}
		pub := PublicDraw(d)

		assert.Nil(t, pub.ServerSeed, string(status))
		assert.Equal(t, "hash", pub.ServerSeedHash)
		// the stored draw must not be mutated
		require.NotNil(t, d.ServerSeed)
	}
}

func TestPublicDraw_RevealsSeedAfterExecution(t *testing.T) {
	seed := "aabbcc"
	for _, status := range []domain.DrawStatus{domain.DrawCalculating, domain.DrawPaying, domain.DrawCompleted} {
		d := &domain.Draw{Status: status, ServerSeed: &seed}
		assert.NotNil(t, PublicDraw(d).ServerSeed, string(status))
	}
}

func TestQueryLimit(t *testing.T) {
	get := func(url string) int {
		return queryLimit(httptest.NewRequest("GET", url, nil), 50)
	}

	assert.Equal(t, 50, get("/draws"))
	assert.Equal(t, 10, get("/draws?limit=10"))
	assert.Equal(t, 200, get("/draws?limit=9999"))
	assert.Equal(t, 50, get("/draws?limit=0"))
	assert.Equal(t, 50, get("/draws?limit=-3"))
	assert.Equal(t, 50, get("/draws?limit=abc"))
}
