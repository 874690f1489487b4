package game_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/annabel-goldman/aquarium/internal/auth"
	"github.com/annabel-goldman/aquarium/internal/game"
	"github.com/annabel-goldman/aquarium/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constSource struct{ f float64 }

func (s constSource) Float64() float64 { return s.f }
func (constSource) Intn(int) int       { return 0 }

var start = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, roll float64) (*game.Service, *store.Memory, *time.Time) {
	t.Helper()
	clock := start
	mem := store.NewMemory()
	svc := game.NewService(mem, nil, game.Options{
		Hasher:  auth.Bcrypt{Cost: 4},
		Tickets: auth.NewTickets([]byte("k"), 10*time.Minute),
		Sampler: game.NewSampler(constSource{f: roll}),
		Clock:   func() time.Time { return clock },
	})
	return svc, mem, &clock
}

func legacyDoc(username string, fish int) game.Document {
	var list []game.Fish
	for i := 0; i < fish; i++ {
		list = append(list, game.Fish{ID: string(rune('a' + i)), Species: "Clownfish", Name: "Old", Color: "#ffffff", Size: game.SizeSmall})
	}
	return game.Document{
		Username: username,
		Tanks:    []game.LegacyTank{{ID: "t1", Name: "Home", Fish: list}},
	}
}

func TestLoginAdoptsPasswordForLegacyAccount(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newService(t, 0.5)
	require.NoError(t, mem.Create(ctx, legacyDoc("oldtimer", 2)))

	res, err := svc.Login(ctx, "oldtimer", "first-password")
	require.NoError(t, err)
	assert.False(t, res.IsNewUser)

	_, err = svc.Login(ctx, "oldtimer", "other-password")
	assert.ErrorIs(t, err, game.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "oldtimer", "first-password")
	assert.NoError(t, err)
}

func TestLoginValidatesInput(t *testing.T) {
	svc, _, _ := newService(t, 0.5)
	_, err := svc.Login(context.Background(), "No", "hunter22")
	assert.ErrorIs(t, err, game.ErrInvalidUsername)
	_, err = svc.Login(context.Background(), "finn", "short")
	assert.ErrorIs(t, err, game.ErrInvalidPassword)
}

func TestStateUpgradesLegacyDocumentOnce(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newService(t, 0.5)
	require.NoError(t, mem.Create(ctx, legacyDoc("oldtimer", 3)))

	state, err := svc.State(ctx, "oldtimer")
	require.NoError(t, err)
	assert.Equal(t, int64(130), state.Coins)
	require.Len(t, state.Fish, 3)
	assert.Equal(t, game.RarityCommon, state.Fish[0].Rarity)

	doc, err := mem.FindByUsername(ctx, "oldtimer")
	require.NoError(t, err)
	assert.False(t, doc.NeedsUpgrade())
	assert.Empty(t, doc.Tanks)

	again, err := svc.State(ctx, "oldtimer")
	require.NoError(t, err)
	assert.Equal(t, int64(130), again.Coins, "bonus is granted once")
}

func TestMigrateAllDryRunThenApply(t *testing.T) {
	ctx := context.Background()
	svc, mem, _ := newService(t, 0.5)
	require.NoError(t, mem.Create(ctx, legacyDoc("a_old", 1)))
	require.NoError(t, mem.Create(ctx, game.NewDocument(game.DefaultEconomy(), "b_new", "", start)))

	report, err := svc.MigrateAll(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, game.MigrationReport{Scanned: 2, Upgraded: 1}, report)
	doc, err := mem.FindByUsername(ctx, "a_old")
	require.NoError(t, err)
	assert.True(t, doc.NeedsUpgrade())

	report, err = svc.MigrateAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Upgraded)

	report, err = svc.MigrateAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Upgraded)
}

func TestTickPersistsAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, mem, clock := newService(t, 0.5)
	_, err := svc.Login(ctx, "finn", "hunter22")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := svc.AddFish(ctx, "finn", game.NewFish{Species: "Seahorse", Name: "Pearl", Color: "#00ccaa", Size: game.SizeSmall})
		require.NoError(t, err)
	}

	*clock = start.Add(250 * time.Second)
	first, err := svc.Tick(ctx, "finn")
	require.NoError(t, err)
	assert.Equal(t, 2, first.PoopCount)
	assert.Equal(t, 94.0, first.Cleanliness)

	second, err := svc.Tick(ctx, "finn")
	require.NoError(t, err)
	assert.Equal(t, 0, second.PoopAdded)
	assert.Equal(t, first.PoopCount, second.PoopCount)
	assert.Equal(t, first.Hunger, second.Hunger)
	assert.Equal(t, first.Cleanliness, second.Cleanliness)

	doc, err := mem.FindByUsername(ctx, "finn")
	require.NoError(t, err)
	assert.True(t, doc.GameState.LastActiveAt.Equal(*clock))
	assert.Len(t, doc.Tank.Poop, 2)
}

func TestCatchCosmeticIsPersisted(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, 0.01)
	_, err := svc.Login(ctx, "finn", "hunter22")
	require.NoError(t, err)

	out, err := svc.Catch(ctx, "finn", "s1", game.CatchHints{})
	require.NoError(t, err)
	require.Equal(t, game.OutcomeCosmetic, out.ResultType)
	require.NotNil(t, out.Cosmetic)
	assert.Empty(t, out.Ticket)

	owned, err := svc.Owned(ctx, "finn")
	require.NoError(t, err)
	all := append(append(owned.Hat, owned.Glasses...), owned.Effect...)
	require.Len(t, all, 1)
	assert.Equal(t, out.Cosmetic.ID, all[0].ID)
}

func TestReleaseWithForeignTicketFails(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, 0.5)
	for _, name := range []string{"finn", "amy"} {
		_, err := svc.Login(ctx, name, "hunter22")
		require.NoError(t, err)
	}
	out, err := svc.Catch(ctx, "finn", "s1", game.CatchHints{})
	require.NoError(t, err)
	require.Equal(t, game.OutcomeFish, out.ResultType)

	_, err = svc.Release(ctx, "amy", out.Ticket)
	assert.ErrorIs(t, err, game.ErrInvalidTicket)

	_, err = svc.Keep(ctx, "finn", "forged")
	assert.ErrorIs(t, err, game.ErrInvalidTicket)
}

func TestUnknownAccount(t *testing.T) {
	svc, _, _ := newService(t, 0.5)
	_, err := svc.State(context.Background(), "ghost")
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestCatchSettlesOnce(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, 0.5)
	_, err := svc.Login(ctx, "finn", "hunter22")
	require.NoError(t, err)

	out, err := svc.Catch(ctx, "finn", "s1", game.CatchHints{Rarity: game.RarityLegendary})
	require.NoError(t, err)
	require.Equal(t, game.OutcomeFish, out.ResultType)

	kept, err := svc.Keep(ctx, "finn", out.Ticket)
	require.NoError(t, err)

	_, err = svc.Keep(ctx, "finn", out.Ticket)
	assert.ErrorIs(t, err, game.ErrCatchSettled)
	_, err = svc.Release(ctx, "finn", out.Ticket)
	assert.ErrorIs(t, err, game.ErrCatchSettled)
	for i := 0; i < 3; i++ {
		_, err = svc.Swap(ctx, "finn", out.Ticket, kept.Fish.ID)
		assert.ErrorIs(t, err, game.ErrCatchSettled)
	}

	state, err := svc.State(ctx, "finn")
	require.NoError(t, err)
	assert.Equal(t, int64(100), state.Coins)
	require.Len(t, state.Fish, 1)
	assert.Equal(t, kept.Fish.ID, state.Fish[0].ID)
}

func TestReleaseCannotBeReplayed(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, 0.5)
	_, err := svc.Login(ctx, "finn", "hunter22")
	require.NoError(t, err)

	out, err := svc.Catch(ctx, "finn", "s1", game.CatchHints{Rarity: game.RarityLegendary})
	require.NoError(t, err)
	released, err := svc.Release(ctx, "finn", out.Ticket)
	require.NoError(t, err)
	assert.Equal(t, int64(200), released.NewCoins)

	_, err = svc.Release(ctx, "finn", out.Ticket)
	assert.ErrorIs(t, err, game.ErrCatchSettled)

	state, err := svc.State(ctx, "finn")
	require.NoError(t, err)
	assert.Equal(t, int64(200), state.Coins)
}

func TestNewCatchReplacesUndecidedOne(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, 0.5)
	_, err := svc.Login(ctx, "finn", "hunter22")
	require.NoError(t, err)

	first, err := svc.Catch(ctx, "finn", "s1", game.CatchHints{})
	require.NoError(t, err)
	second, err := svc.Catch(ctx, "finn", "s2", game.CatchHints{})
	require.NoError(t, err)

	_, err = svc.Keep(ctx, "finn", first.Ticket)
	assert.ErrorIs(t, err, game.ErrCatchSettled)
	_, err = svc.Keep(ctx, "finn", second.Ticket)
	assert.NoError(t, err)
}

func TestDuplicateFishAreLoggedOnLoad(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	mem := store.NewMemory()
	svc := game.NewService(mem, slog.New(slog.NewTextHandler(&logs, nil)), game.Options{
		Clock: func() time.Time { return start },
	})

	doc := game.NewDocument(game.DefaultEconomy(), "finn", "hash", start)
	doc.Fish = []game.Fish{
		{ID: "twin", Species: "Clownfish", Name: "One", Color: "#ffffff", Size: game.SizeSmall, Rarity: game.RarityCommon},
		{ID: "twin", Species: "Clownfish", Name: "Two", Color: "#ffffff", Size: game.SizeSmall, Rarity: game.RarityCommon},
	}
	require.NoError(t, mem.Create(ctx, doc))

	state, err := svc.State(ctx, "finn")
	require.NoError(t, err)
	require.Len(t, state.Fish, 1)
	assert.Equal(t, "One", state.Fish[0].Name)
	assert.Contains(t, logs.String(), "duplicate fish dropped")
	assert.Contains(t, logs.String(), "twin")

	logs.Reset()
	legacy := legacyDoc("old", 2)
	legacy.Tanks[0].Fish[1].ID = legacy.Tanks[0].Fish[0].ID
	require.NoError(t, mem.Create(ctx, legacy))
	_, err = svc.MigrateAll(ctx, true)
	require.NoError(t, err)
	assert.Contains(t, logs.String(), `msg="duplicate fish dropped" username=old`)
}
