package store

import (
	"context"
	"testing"
	"time"

	"github.com/annabel-goldman/aquarium/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func seeded(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory()
	require.NoError(t, m.Create(context.Background(), game.NewDocument(game.DefaultEconomy(), "finn", "hash", now)))
	return m
}

func TestMemoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	m := seeded(t)

	doc, err := m.FindByUsername(ctx, "finn")
	require.NoError(t, err)
	assert.Equal(t, "hash", doc.PasswordHash)
	assert.Equal(t, int64(100), doc.GameState.Coins)
	assert.True(t, doc.GameState.LastActiveAt.Equal(now))
	assert.False(t, doc.NeedsUpgrade())

	err = m.Create(ctx, game.NewDocument(game.DefaultEconomy(), "finn", "other", now))
	assert.ErrorIs(t, err, game.ErrAccountExists)

	_, err = m.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, game.ErrAccountNotFound)
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestMemorySetFieldsDottedPaths(t *testing.T) {
	ctx := context.Background()
	m := seeded(t)

	poop := []game.PoopMarker{{ID: "p1", X: 0.4, Y: 0.7, CreatedAt: now}}
	require.NoError(t, m.SetFields(ctx, "finn", game.Update{
		game.FieldCoins:  int64(42),
		game.FieldHunger: 61.5,
		game.FieldPoop:   poop,
	}))

	doc, err := m.FindByUsername(ctx, "finn")
	require.NoError(t, err)
	assert.Equal(t, int64(42), doc.GameState.Coins)
	assert.Equal(t, 10, doc.GameState.MaxFish)
	assert.Equal(t, 61.5, doc.Tank.Hunger)
	require.Len(t, doc.Tank.Poop, 1)
	assert.Equal(t, "p1", doc.Tank.Poop[0].ID)

	assert.ErrorIs(t, m.SetFields(ctx, "nobody", game.Update{game.FieldCoins: 1}), game.ErrAccountNotFound)
}

func TestMemoryPushAndPull(t *testing.T) {
	ctx := context.Background()
	m := seeded(t)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, m.Push(ctx, "finn", game.FieldFish, game.Fish{ID: id, Species: "Seahorse"}, game.Update{game.FieldUpdatedAt: now}))
	}
	require.NoError(t, m.Push(ctx, "finn", game.FieldOwnedAccessories, "top_hat", nil))

	removed, err := m.Pull(ctx, "finn", game.FieldFish, "b", game.Update{game.FieldUpdatedAt: now.Add(time.Minute)})
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = m.Pull(ctx, "finn", game.FieldFish, "zzz", nil)
	require.NoError(t, err)
	assert.False(t, removed)

	doc, err := m.FindByUsername(ctx, "finn")
	require.NoError(t, err)
	require.Len(t, doc.Fish, 2)
	assert.Equal(t, "a", doc.Fish[0].ID)
	assert.Equal(t, "c", doc.Fish[1].ID)
	assert.Equal(t, []string{"top_hat"}, doc.OwnedAccessories)
	assert.True(t, doc.UpdatedAt.Equal(now.Add(time.Minute)))

	_, err = m.Pull(ctx, "nobody", game.FieldFish, "a", nil)
	assert.ErrorIs(t, err, game.ErrAccountNotFound)
}

func TestMemoryPullPendingCatchAppliesSetOnce(t *testing.T) {
	ctx := context.Background()
	m := seeded(t)
	require.NoError(t, m.SetFields(ctx, "finn", game.Update{game.FieldPendingCatches: []string{"c1"}}))

	removed, err := m.Pull(ctx, "finn", game.FieldPendingCatches, "c1", game.Update{game.FieldCoins: int64(200)})
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = m.Pull(ctx, "finn", game.FieldPendingCatches, "c1", game.Update{game.FieldCoins: int64(300)})
	require.NoError(t, err)
	assert.False(t, removed)

	doc, err := m.FindByUsername(ctx, "finn")
	require.NoError(t, err)
	assert.Equal(t, int64(200), doc.GameState.Coins)
	assert.Empty(t, doc.GameState.PendingCatches)
}

func TestMemoryReplaceDropsLegacyFields(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	legacy := game.Document{
		Username: "old",
		Tanks:    []game.LegacyTank{{ID: "t", Fish: []game.Fish{{ID: "f"}}}},
	}
	require.NoError(t, m.Create(ctx, legacy))

	stored, err := m.FindByUsername(ctx, "old")
	require.NoError(t, err)
	require.True(t, stored.NeedsUpgrade())

	upgraded, changed := game.UpgradeDocument(game.DefaultEconomy(), stored, now)
	require.True(t, changed)
	require.NoError(t, m.Replace(ctx, upgraded))

	doc, err := m.FindByUsername(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, doc.Tanks)
	assert.False(t, doc.NeedsUpgrade())
	require.Len(t, doc.Fish, 1)

	assert.ErrorIs(t, m.Replace(ctx, game.Document{Username: "ghost"}), game.ErrAccountNotFound)
}

func TestMemoryUsernamesSorted(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, name := range []string{"zed", "amy", "kim"} {
		require.NoError(t, m.Create(ctx, game.NewDocument(game.DefaultEconomy(), name, "", now)))
	}
	names, err := m.Usernames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"amy", "kim", "zed"}, names)
}

func TestOpenMemoryAndUnknown(t *testing.T) {
	s, closeFn, err := Open(context.Background(), Config{Driver: "memory"}, nil)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &Memory{}, s)

	_, _, err = Open(context.Background(), Config{Driver: "redis"}, nil)
	assert.ErrorContains(t, err, "unknown store driver")
}
