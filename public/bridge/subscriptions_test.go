package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionSetAddRemove(t *testing.T) {
	s := NewSubscriptionSet()
	assert.True(t, s.Add("msh/EU_868/2/e/LongFast/!00000001"))
	assert.False(t, s.Add("msh/EU_868/2/e/LongFast/!00000001"))
	assert.ElementsMatch(t, []string{"msh/EU_868/2/e/LongFast/!00000001"}, s.List())

	assert.True(t, s.Remove("msh/EU_868/2/e/LongFast/!00000001"))
	assert.False(t, s.Remove("msh/EU_868/2/e/LongFast/!00000001"))
	assert.Empty(t, s.List())
}

func TestSubscriptionSetSeedOnceWhenEmpty(t *testing.T) {
	s := NewSubscriptionSet()
	assert.True(t, s.SeedOnce("default/topic"))
	assert.ElementsMatch(t, []string{"default/topic"}, s.List())
}

func TestSubscriptionSetSeedOnceSkipsIfAlreadySeeded(t *testing.T) {
	s := NewSubscriptionSet()
	s.SeedOnce("default/topic")
	s.Remove("default/topic")

	assert.False(t, s.SeedOnce("default/topic"))
	assert.Empty(t, s.List())
}

func TestSubscriptionSetSeedOnceSkipsIfNonEmpty(t *testing.T) {
	s := NewSubscriptionSet()
	s.Add("already/subscribed")

	assert.False(t, s.SeedOnce("default/topic"))
	assert.ElementsMatch(t, []string{"already/subscribed"}, s.List())
}
