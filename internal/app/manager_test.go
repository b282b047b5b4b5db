package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerReusesControllers(t *testing.T) {
	f := newFixture()
	m := NewManager(f.deps, time.Minute)
	defer m.Close()

	a, err := m.Get(context.Background(), "s1")
	require.NoError(t, err)
	b, err := m.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = m.Get(context.Background(), "s2")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
}

func TestManagerEvictIdle(t *testing.T) {
	f := newFixture()
	now := testNow
	f.deps.Now = func() time.Time { return now }
	m := NewManager(f.deps, 10*time.Minute)
	defer m.Close()

	_, err := m.Get(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, 0, m.EvictIdle(now.Add(5*time.Minute)))
	assert.Equal(t, 1, m.Len())

	assert.Equal(t, 1, m.EvictIdle(now.Add(10*time.Minute)))
	assert.Equal(t, 0, m.Len())
}

func TestManagerStartJanitor(t *testing.T) {
	m := NewManager(newFixture().deps, time.Minute)
	defer m.Close()

	c, err := m.StartJanitor("@every 1m")
	require.NoError(t, err)
	<-c.Stop().Done()

	_, err = m.StartJanitor("not a schedule")
	assert.Error(t, err)
}

func TestManagerGetRefreshesIdleClock(t *testing.T) {
	f := newFixture()
	now := testNow
	f.deps.Now = func() time.Time { return now }
	m := NewManager(f.deps, 10*time.Minute)
	defer m.Close()

	first, err := m.Get(context.Background(), "s1")
	require.NoError(t, err)

	now = now.Add(9 * time.Minute)
	again, err := m.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, now, again.idleSince())

	assert.Equal(t, 0, m.EvictIdle(now.Add(9*time.Minute)))
	assert.Equal(t, 1, m.Len())
}
