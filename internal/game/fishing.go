package game

import (
	"slices"
	"time"
)

type OutcomeKind string

const (
	OutcomeFish       OutcomeKind = "fish"
	OutcomeJunk       OutcomeKind = "junk"
	OutcomeCosmetic   OutcomeKind = "cosmetic"
	OutcomeBonusCoins OutcomeKind = "bonus_coins"
)

// Spawn is a lake silhouette. Speed is the seconds it takes to cross.
type Spawn struct {
	ID        string  `json:"id"`
	Species   string  `json:"species"`
	Rarity    Rarity  `json:"rarity"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Speed     float64 `json:"speed"`
	Direction int     `json:"direction"`
	Size      Size    `json:"size"`
}

// CatchHints carries the attributes of the silhouette the player clicked.
// Empty or unknown values are resampled.
type CatchHints struct {
	Species string
	Size    Size
	Rarity  Rarity
}

type CatchOutcome struct {
	Kind       OutcomeKind
	Fish       *Fish
	Junk       string
	Cosmetic   *CosmeticItem
	BonusCoins int64
	CoinValue  int64
}

type SwapReport struct {
	Added       Fish
	Released    Fish
	CoinsEarned int64
	Coins       int64
}

type Resolver struct {
	econ    Economy
	sampler *Sampler
}

func NewResolver(econ Economy, sampler *Sampler) *Resolver {
	if sampler == nil {
		sampler = NewSampler(nil)
	}
	return &Resolver{econ: econ, sampler: sampler}
}

func (r *Resolver) Spawns() []Spawn {
	n := r.sampler.IntRange(r.econ.MinSpawns, r.econ.MaxSpawns)
	out := make([]Spawn, 0, n)
	for i := 0; i < n; i++ {
		rarity := r.sampler.WeightedRarity(r.econ)
		tier, _ := r.econ.Tier(rarity)
		direction := 1
		if r.sampler.Float64() < 0.5 {
			direction = -1
		}
		out = append(out, Spawn{
			ID:        r.sampler.NewID(),
			Species:   r.sampler.Species(r.econ),
			Rarity:    rarity,
			X:         r.sampler.Uniform(0.1, 0.9),
			Y:         r.sampler.Uniform(0.2, 0.8),
			Speed:     tier.SwimSeconds,
			Direction: direction,
			Size:      r.sampler.Size(),
		})
	}
	return out
}

// ResolveCatch rolls the outcome of one cast. Cosmetic and bonus-coin outcomes
// are applied to the returned account; a fish outcome is provisional and the
// account is returned unchanged.
func (r *Resolver) ResolveCatch(acct Account, hints CatchHints, now time.Time) (Account, CatchOutcome) {
	roll := r.sampler.Float64()
	switch {
	case roll < r.econ.CosmeticChance:
		return r.grantCosmetic(acct)
	case roll < r.econ.CosmeticChance+r.econ.JunkChance:
		return acct, CatchOutcome{Kind: OutcomeJunk, Junk: pick(r.sampler, r.econ.Junk)}
	}
	fish := r.provisionalFish(hints, now)
	return acct, CatchOutcome{
		Kind:      OutcomeFish,
		Fish:      &fish,
		CoinValue: r.econ.CoinValue(fish.Rarity),
	}
}

func (r *Resolver) grantCosmetic(acct Account) (Account, CatchOutcome) {
	var unowned []CosmeticItem
	for _, item := range r.econ.catchOnlyItems() {
		if !acct.Owns(item.ID) {
			unowned = append(unowned, item)
		}
	}
	next := acct.Clone()
	if len(unowned) == 0 {
		next.Coins += r.econ.BonusCoinsAllCosmetics
		return next, CatchOutcome{Kind: OutcomeBonusCoins, BonusCoins: r.econ.BonusCoinsAllCosmetics}
	}
	item := pick(r.sampler, unowned)
	next.OwnedAccessories = append(next.OwnedAccessories, item.ID)
	return next, CatchOutcome{Kind: OutcomeCosmetic, Cosmetic: &item}
}

func (r *Resolver) provisionalFish(hints CatchHints, now time.Time) Fish {
	species := hints.Species
	if !r.econ.hasSpecies(species) {
		species = r.sampler.Species(r.econ)
	}
	size := hints.Size
	if !size.Valid() {
		size = r.sampler.Size()
	}
	rarity := hints.Rarity
	if _, ok := r.econ.Tier(rarity); !ok {
		rarity = r.sampler.WeightedRarity(r.econ)
	}
	return Fish{
		ID:        r.sampler.NewID(),
		Species:   species,
		Name:      r.sampler.FishName(r.econ),
		Color:     r.sampler.Color(r.econ),
		Size:      size,
		Rarity:    rarity,
		CreatedAt: now,
	}
}

// NewManualFish builds a common fish from player input.
func (r *Resolver) NewManualFish(in NewFish, now time.Time) (Fish, error) {
	if err := in.Validate(); err != nil {
		return Fish{}, err
	}
	return Fish{
		ID:        r.sampler.NewID(),
		Species:   in.Species,
		Name:      in.Name,
		Color:     in.Color,
		Size:      in.Size,
		Rarity:    RarityCommon,
		CreatedAt: now,
	}, nil
}

// Settle takes a caught fish off the pending list. Each catch settles once,
// through exactly one of Keep, Release or Swap.
func (r *Resolver) Settle(acct Account, fish Fish) (Account, error) {
	i := slices.Index(acct.PendingCatches, fish.ID)
	if i < 0 {
		return acct, errorf(ErrCatchSettled, "fish %s", fish.ID)
	}
	next := acct.Clone()
	next.PendingCatches = slices.Delete(next.PendingCatches, i, i+1)
	return next, nil
}

func (r *Resolver) Keep(acct Account, fish Fish) (Account, error) {
	if acct.Fish.Len() >= acct.MaxFish {
		return acct, errorf(ErrTankFull, "%d/%d fish", acct.Fish.Len(), acct.MaxFish)
	}
	next := acct.Clone()
	if err := next.Fish.Add(fish); err != nil {
		return acct, err
	}
	return next, nil
}

func (r *Resolver) Release(acct Account, fish Fish) (Account, int64) {
	value := r.econ.CoinValue(fish.Rarity)
	next := acct.Clone()
	next.Coins += value
	return next, value
}

// RemoveFish takes a fish out of the tank without paying for it.
func (r *Resolver) RemoveFish(acct Account, fishID string) (Account, Fish, error) {
	next := acct.Clone()
	removed, err := next.Fish.Remove(fishID)
	if err != nil {
		return acct, Fish{}, err
	}
	return next, removed, nil
}

// Swap replaces releaseID with the provisional fish. On any error the input
// account is returned untouched.
func (r *Resolver) Swap(acct Account, fish Fish, releaseID string) (Account, SwapReport, error) {
	if !acct.Fish.Has(releaseID) {
		return acct, SwapReport{}, errorf(ErrNotFound, "fish %s", releaseID)
	}
	if acct.Fish.Has(fish.ID) {
		return acct, SwapReport{}, errorf(ErrDuplicateFish, "fish %s", fish.ID)
	}
	next := acct.Clone()
	released, err := next.Fish.Remove(releaseID)
	if err != nil {
		return acct, SwapReport{}, err
	}
	if err := next.Fish.Add(fish); err != nil {
		return acct, SwapReport{}, err
	}
	value := r.econ.CoinValue(released.Rarity)
	next.Coins += value
	return next, SwapReport{
		Added:       fish,
		Released:    released,
		CoinsEarned: value,
		Coins:       next.Coins,
	}, nil
}
