package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllow_BurstThenDenied(t *testing.T) {
	kl := New(1, 3)
	defer kl.Stop()

	for i := range 3 {
		assert.True(t, kl.Allow("10.0.0.1"), "request %d within burst", i)
	}
	assert.False(t, kl.Allow("10.0.0.1"), "burst exhausted")
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	kl := New(1, 1)
	defer kl.Stop()

	assert.True(t, kl.Allow("a"))
	assert.False(t, kl.Allow("a"))
	assert.True(t, kl.Allow("b"), "second key has its own bucket")
}
