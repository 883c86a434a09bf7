package featureflags

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	assert.True(t, m.Enabled("a", "1"))
	assert.True(t, m.Enabled("c", "1"))
	assert.True(t, m.Enabled("e", "1"))
	assert.False(t, m.Enabled("b", "1"))
	assert.False(t, m.Enabled("d", "1"))
	assert.False(t, m.Enabled("f", "1"))
	assert.False(t, m.Enabled("missing", "1"))
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,junk=abc%")

	assert.True(t, m.Enabled("always", "1"))
	assert.False(t, m.Enabled("never", "1"))
	assert.False(t, m.Enabled("junk", "1"))

	first := m.Enabled("canary", "42")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", "42"), "rollout evaluation must be deterministic per user")
	}

	assert.False(t, m.Enabled("canary", ""), "percentage rollout requires a user id")
}

func TestEnabled_PercentageSplitsPopulation(t *testing.T) {
	m := NewManager("half=50%")
	on := 0
	for i := 0; i < 1000; i++ {
		if m.Enabled("half", strconv.Itoa(i)) {
			on++
		}
	}
	assert.Greater(t, on, 0)
	assert.Less(t, on, 1000)
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, Y = 20% ,z=off ")

	raw := m.Raw()
	assert.Len(t, raw, 3)
	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, raw)
	assert.Equal(t, []string{"x", "y", "z"}, m.Names())

	snap := m.Snapshot("123")
	assert.Len(t, snap, 3)
	assert.True(t, snap["x"])
	assert.False(t, snap["z"])
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(SocialFeed, "1"))
	assert.Empty(t, m.Raw())
	assert.Empty(t, m.Snapshot("1"))
	assert.Nil(t, m.Names())
}
