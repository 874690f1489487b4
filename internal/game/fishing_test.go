package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scriptedResolver(floats []float64, ints []int) *Resolver {
	src := &scriptedSource{floats: floats, ints: ints}
	return NewResolver(DefaultEconomy(), NewSampler(src).WithIDs(sequentialIDs("caught")))
}

func TestResolveCatchCosmeticGrantsUnownedItem(t *testing.T) {
	r := scriptedResolver([]float64{0.01}, []int{1})
	acct := testAccount(0)

	next, out := r.ResolveCatch(acct, CatchHints{}, t0)

	require.Equal(t, OutcomeCosmetic, out.Kind)
	require.NotNil(t, out.Cosmetic)
	assert.Equal(t, "effect_lucky", out.Cosmetic.ID)
	assert.Equal(t, []string{"effect_lucky"}, next.OwnedAccessories)
	assert.Equal(t, acct.Coins, next.Coins)
	assert.Empty(t, acct.OwnedAccessories)
}

func TestResolveCatchCosmeticSkipsOwned(t *testing.T) {
	r := scriptedResolver([]float64{0.04}, []int{0})
	acct := testAccount(0)
	acct.OwnedAccessories = []string{"hat_fishing"}

	next, out := r.ResolveCatch(acct, CatchHints{}, t0)
	require.Equal(t, OutcomeCosmetic, out.Kind)
	assert.Equal(t, "effect_lucky", out.Cosmetic.ID)
	assert.ElementsMatch(t, []string{"hat_fishing", "effect_lucky"}, next.OwnedAccessories)
}

func TestResolveCatchAllCosmeticsOwnedGivesBonusCoins(t *testing.T) {
	r := scriptedResolver([]float64{0.01}, nil)
	acct := testAccount(0)
	acct.OwnedAccessories = []string{"hat_fishing", "effect_lucky"}

	next, out := r.ResolveCatch(acct, CatchHints{}, t0)

	require.Equal(t, OutcomeBonusCoins, out.Kind)
	assert.Equal(t, int64(50), out.BonusCoins)
	assert.Equal(t, acct.Coins+50, next.Coins)
	assert.Equal(t, acct.OwnedAccessories, next.OwnedAccessories)
}

func TestResolveCatchJunkChangesNothing(t *testing.T) {
	r := scriptedResolver([]float64{0.07}, []int{2})
	acct := testAccount(1)

	next, out := r.ResolveCatch(acct, CatchHints{}, t0)

	require.Equal(t, OutcomeJunk, out.Kind)
	assert.Equal(t, "Seaweed Clump", out.Junk)
	assert.Equal(t, acct, next)
}

func TestResolveCatchFishUsesHints(t *testing.T) {
	r := scriptedResolver([]float64{0.5, 0.9}, []int{8, 0})
	acct := testAccount(1)

	next, out := r.ResolveCatch(acct, CatchHints{Species: "Clownfish", Size: SizeLarge, Rarity: RarityRare}, t0)

	require.Equal(t, OutcomeFish, out.Kind)
	require.NotNil(t, out.Fish)
	assert.Equal(t, "Clownfish", out.Fish.Species)
	assert.Equal(t, SizeLarge, out.Fish.Size)
	assert.Equal(t, RarityRare, out.Fish.Rarity)
	assert.Equal(t, int64(40), out.CoinValue)
	assert.Equal(t, "Sparkle", out.Fish.Name)
	assert.Equal(t, "#ff8844", out.Fish.Color)
	assert.Equal(t, Accessories{}, out.Fish.Accessories)
	assert.Equal(t, t0, out.Fish.CreatedAt)
	assert.NotEmpty(t, out.Fish.ID)
	assert.Equal(t, 1, next.Fish.Len(), "caught fish stay provisional")
}

func TestResolveCatchFishResamplesInvalidHints(t *testing.T) {
	econ := DefaultEconomy()
	r := NewResolver(econ, NewSampler(rand.New(rand.NewSource(5))))

	for i := 0; i < 50; i++ {
		_, out := r.ResolveCatch(testAccount(0), CatchHints{Species: "Kraken", Size: "xl", Rarity: "mythic"}, t0)
		if out.Kind != OutcomeFish {
			continue
		}
		assert.True(t, econ.hasSpecies(out.Fish.Species))
		assert.True(t, out.Fish.Size.Valid())
		_, ok := econ.Tier(out.Fish.Rarity)
		assert.True(t, ok)
	}
}

func TestSpawns(t *testing.T) {
	econ := DefaultEconomy()
	r := NewResolver(econ, NewSampler(rand.New(rand.NewSource(9))))

	for i := 0; i < 20; i++ {
		spawns := r.Spawns()
		require.GreaterOrEqual(t, len(spawns), econ.MinSpawns)
		require.LessOrEqual(t, len(spawns), econ.MaxSpawns)
		for _, s := range spawns {
			tier, ok := econ.Tier(s.Rarity)
			require.True(t, ok)
			assert.Equal(t, tier.SwimSeconds, s.Speed)
			assert.Contains(t, []int{-1, 1}, s.Direction)
			assert.True(t, s.Size.Valid())
			assert.True(t, econ.hasSpecies(s.Species))
			assert.GreaterOrEqual(t, s.Y, 0.2)
			assert.LessOrEqual(t, s.Y, 0.8)
		}
	}
}

func TestKeep(t *testing.T) {
	r := scriptedResolver(nil, nil)
	acct := testAccount(2)

	next, err := r.Keep(acct, Fish{ID: "new"})
	require.NoError(t, err)
	assert.Equal(t, 3, next.Fish.Len())
	assert.Equal(t, 2, acct.Fish.Len())

	_, err = r.Keep(next, Fish{ID: "new"})
	assert.ErrorIs(t, err, ErrDuplicateFish)
}

func TestKeepTankFull(t *testing.T) {
	r := scriptedResolver(nil, nil)
	acct := testAccount(3)
	acct.MaxFish = 3

	next, err := r.Keep(acct, Fish{ID: "new"})
	assert.ErrorIs(t, err, ErrTankFull)
	assert.Equal(t, 3, next.Fish.Len())
}

func TestCapacityNeverExceeded(t *testing.T) {
	r := NewResolver(DefaultEconomy(), NewSampler(rand.New(rand.NewSource(1))))
	acct := testAccount(0)
	acct.MaxFish = 4

	for i := 0; i < 20; i++ {
		fish := r.provisionalFish(CatchHints{}, t0)
		if next, err := r.Keep(acct, fish); err == nil {
			acct = next
		} else {
			require.ErrorIs(t, err, ErrTankFull)
		}
		if acct.Fish.Len() > 0 && i%3 == 0 {
			victim := acct.Fish.All()[0].ID
			next, _, err := r.Swap(acct, r.provisionalFish(CatchHints{}, t0), victim)
			require.NoError(t, err)
			acct = next
		}
		require.LessOrEqual(t, acct.Fish.Len(), acct.MaxFish)
	}
}

func TestRelease(t *testing.T) {
	r := scriptedResolver(nil, nil)
	acct := testAccount(0)

	next, earned := r.Release(acct, Fish{ID: "x", Rarity: RarityLegendary})
	assert.Equal(t, int64(100), earned)
	assert.Equal(t, acct.Coins+100, next.Coins)

	_, earned = r.Release(next, Fish{ID: "y", Rarity: "mystery"})
	assert.Equal(t, int64(5), earned)
}

func TestSwap(t *testing.T) {
	r := scriptedResolver(nil, nil)
	acct := testAccount(3)
	victim, _ := acct.Fish.Get("fish-1")
	victim.Rarity = RarityUncommon
	require.NoError(t, acct.Fish.Put(victim))

	next, report, err := r.Swap(acct, Fish{ID: "caught", Name: "Dory", Rarity: RarityLegendary}, "fish-1")
	require.NoError(t, err)

	assert.Equal(t, int64(15), report.CoinsEarned)
	assert.Equal(t, acct.Coins+15, next.Coins)
	assert.Equal(t, "fish-1", report.Released.ID)
	assert.Equal(t, 3, next.Fish.Len())
	assert.False(t, next.Fish.Has("fish-1"))
	assert.True(t, next.Fish.Has("caught"))
	assert.True(t, acct.Fish.Has("fish-1"))
}

func TestSwapMissingTargetLeavesStateUntouched(t *testing.T) {
	r := scriptedResolver(nil, nil)
	acct := testAccount(2)
	before := acct.Clone()

	next, _, err := r.Swap(acct, Fish{ID: "caught"}, "nope")

	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, next)
	assert.Equal(t, before, acct)
}

func TestSwapRejectsFishAlreadyInTank(t *testing.T) {
	r := scriptedResolver(nil, nil)
	acct := testAccount(2)
	kept, _ := acct.Fish.Get("fish-0")
	kept.Rarity = RarityLegendary
	require.NoError(t, acct.Fish.Put(kept))
	before := acct.Clone()

	next, _, err := r.Swap(acct, kept, kept.ID)
	require.ErrorIs(t, err, ErrDuplicateFish)
	assert.Equal(t, before, next)

	_, _, err = r.Swap(acct, kept, "fish-1")
	require.ErrorIs(t, err, ErrDuplicateFish)
	assert.Equal(t, before.Coins, acct.Coins)
}

func TestSettleOnce(t *testing.T) {
	r := scriptedResolver(nil, nil)
	acct := testAccount(0)
	acct.PendingCatches = []string{"caught-1", "caught-2"}

	next, err := r.Settle(acct, Fish{ID: "caught-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"caught-2"}, next.PendingCatches)
	assert.Equal(t, []string{"caught-1", "caught-2"}, acct.PendingCatches)

	_, err = r.Settle(next, Fish{ID: "caught-1"})
	assert.ErrorIs(t, err, ErrCatchSettled)

	_, err = r.Settle(testAccount(0), Fish{ID: "caught-2"})
	assert.ErrorIs(t, err, ErrCatchSettled)
}

func TestNewManualFish(t *testing.T) {
	r := scriptedResolver(nil, nil)

	fish, err := r.NewManualFish(NewFish{Species: "Seahorse", Name: "Pearl", Color: "#00CCAA", Size: SizeSmall}, t0)
	require.NoError(t, err)
	assert.Equal(t, RarityCommon, fish.Rarity)
	assert.Equal(t, Accessories{}, fish.Accessories)
	assert.NotEmpty(t, fish.ID)

	_, err = r.NewManualFish(NewFish{Species: "Seahorse", Name: "Pearl", Color: "teal", Size: SizeSmall}, t0)
	assert.ErrorIs(t, err, ErrInvalidFish)
}
