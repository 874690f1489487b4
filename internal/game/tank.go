package game

import (
	"math"
	"time"
)

type TickReport struct {
	Elapsed     time.Duration
	PoopAdded   int
	Hunger      float64
	Cleanliness float64
	Happiness   float64
}

type FeedReport struct {
	Hunger     float64
	CoinsSpent int64
	Coins      int64
}

type CleanReport struct {
	Cleanliness float64
	Removed     int
	Remaining   int
}

// Reconciler advances tank state lazily from the stored lastActiveAt. Every
// method takes an account snapshot by value and returns the new snapshot; the
// input is never modified.
type Reconciler struct {
	econ    Economy
	sampler *Sampler
}

func NewReconciler(econ Economy, sampler *Sampler) *Reconciler {
	if sampler == nil {
		sampler = NewSampler(nil)
	}
	return &Reconciler{econ: econ, sampler: sampler}
}

func (r *Reconciler) elapsed(lastActiveAt, now time.Time) time.Duration {
	if lastActiveAt.IsZero() {
		return 0
	}
	d := now.Sub(lastActiveAt)
	if d < 0 {
		return 0
	}
	if d > r.econ.ElapsedCap {
		return r.econ.ElapsedCap
	}
	return d
}

func (r *Reconciler) Reconcile(acct Account, now time.Time) (Account, TickReport) {
	next := acct.Clone()
	elapsed := r.elapsed(acct.LastActiveAt, now)

	next.Tank.Hunger = clampMeter(next.Tank.Hunger - r.econ.HungerDecayPerMinute*elapsed.Minutes())

	added := 0
	if next.Tank.LastPoopTime.IsZero() {
		next.Tank.LastPoopTime = now
	}
	if fishCount := next.Fish.Len(); fishCount > 0 {
		since := now.Sub(next.Tank.LastPoopTime)
		if since >= r.econ.PoopInterval {
			added = int(math.Min(math.Floor(float64(since)/float64(r.econ.PoopInterval)), float64(fishCount)))
			for i := 0; i < added; i++ {
				next.Tank.Poop = append(next.Tank.Poop, PoopMarker{
					ID:        r.sampler.NewID(),
					X:         r.sampler.Uniform(0.1, 0.9),
					Y:         r.sampler.Uniform(0.6, 0.9),
					CreatedAt: now,
				})
			}
			next.Tank.LastPoopTime = now
		}
	}

	next.Tank.Cleanliness = CleanlinessFor(len(next.Tank.Poop), r.econ.PoopPenalty)
	if now.After(next.LastActiveAt) {
		next.LastActiveAt = now
	}

	return next, TickReport{
		Elapsed:     elapsed,
		PoopAdded:   added,
		Hunger:      next.Tank.Hunger,
		Cleanliness: next.Tank.Cleanliness,
		Happiness:   next.Happiness(),
	}
}

func (r *Reconciler) Feed(acct Account) (Account, FeedReport, error) {
	if acct.Coins < r.econ.FeedCost {
		return acct, FeedReport{}, errorf(ErrInsufficientFunds, "feeding costs %d coins, have %d", r.econ.FeedCost, acct.Coins)
	}
	next := acct.Clone()
	next.Tank.Hunger = clampMeter(next.Tank.Hunger + r.econ.HungerFeedRestore)
	next.Coins -= r.econ.FeedCost
	return next, FeedReport{
		Hunger:     next.Tank.Hunger,
		CoinsSpent: r.econ.FeedCost,
		Coins:      next.Coins,
	}, nil
}

func (r *Reconciler) CleanAll(acct Account) (Account, CleanReport) {
	next := acct.Clone()
	removed := len(next.Tank.Poop)
	next.Tank.Poop = []PoopMarker{}
	next.Tank.Cleanliness = MaxMeter
	return next, CleanReport{Cleanliness: MaxMeter, Removed: removed}
}

// CleanOne removes a single marker. An unknown id is not an error.
func (r *Reconciler) CleanOne(acct Account, poopID string) (Account, CleanReport) {
	next := acct.Clone()
	kept := next.Tank.Poop[:0]
	removed := 0
	for _, p := range next.Tank.Poop {
		if p.ID == poopID {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	next.Tank.Poop = kept
	next.Tank.Cleanliness = CleanlinessFor(len(kept), r.econ.PoopPenalty)
	return next, CleanReport{
		Cleanliness: next.Tank.Cleanliness,
		Removed:     removed,
		Remaining:   len(kept),
	}
}
