package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_ClosedAllows(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	assert.True(t, cb.Check("sendTon").Allowed)
	cb.RecordFailure("sendTon")
	cb.RecordFailure("sendTon")
	assert.True(t, cb.Check("sendTon").Allowed, "below threshold")
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		cb.RecordFailure("sendTon")
	}
	res := cb.Check("sendTon")
	assert.False(t, res.Allowed)
	assert.Contains(t, res.Reason, "circuit open")
}

func TestCircuitBreaker_KeysIndependent(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute)

	cb.RecordFailure("sendTon")
	assert.False(t, cb.Check("sendTon").Allowed)
	assert.True(t, cb.Check("getBalance").Allowed)
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)

	cb.RecordFailure("sendTon")
	assert.False(t, cb.Check("sendTon").Allowed)

	time.Sleep(20 * time.Millisecond)

	assert.True(t, cb.Check("sendTon").Allowed)
	cb.RecordSuccess("sendTon")
	assert.True(t, cb.Check("sendTon").Allowed, "closed again after probe success")
}

func TestCircuitBreaker_ReopensOnProbeFailure(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)

	cb.RecordFailure("sendTon")
	time.Sleep(20 * time.Millisecond)
	assert.True(t, cb.Check("sendTon").Allowed)

	cb.RecordFailure("sendTon")
	assert.False(t, cb.Check("sendTon").Allowed)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Minute)

	cb.RecordFailure("sendTon")
	cb.RecordSuccess("sendTon")
	cb.RecordFailure("sendTon")
	assert.True(t, cb.Check("sendTon").Allowed)
}
