package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, "u1"), name)
		assert.True(t, m.On(name), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, m.Enabled(name, "u1"), name)
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,broken=abc%")

	assert.True(t, m.Enabled("always", "u1"))
	assert.True(t, m.On("always"))
	assert.False(t, m.Enabled("never", "u1"))
	assert.False(t, m.Enabled("broken", "u1"))

	first := m.Enabled("canary", "user-42")
	for range 5 {
		assert.Equal(t, first, m.Enabled("canary", "user-42"), "rollout evaluation must be deterministic per user")
	}

	assert.False(t, m.Enabled("canary", ""), "percentage rollout requires a user")
	assert.False(t, m.On("canary"))
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,X=on, y = 20% ,z=off,=on,w= ")

	raw := m.Raw()
	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, raw)

	snap := m.Snapshot("u1")
	assert.Len(t, snap, 3)
	assert.True(t, snap["x"])
	assert.False(t, snap["z"])
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.On(PostCache))
}

func TestDefaultFlags(t *testing.T) {
	m := NewManager("post_cache=on,live_feed=on")
	assert.True(t, m.On(PostCache))
	assert.True(t, m.On(LiveFeed))
}
