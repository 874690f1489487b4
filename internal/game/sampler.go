package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Source is the randomness the engines draw from. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// Sampler is safe for concurrent use. The underlying Source is not.
type Sampler struct {
	mu  sync.Mutex
	src Source
	ids func() string
}

func NewSampler(src Source) *Sampler {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sampler{src: src, ids: uuid.NewString}
}

// WithIDs replaces the id generator. Used by tests that need stable ids.
func (s *Sampler) WithIDs(next func() string) *Sampler {
	s.ids = next
	return s
}

func (s *Sampler) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Float64()
}

// Intn returns a value in [0,n). It returns 0 for n <= 0.
func (s *Sampler) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Intn(n)
}

func (s *Sampler) Uniform(lo, hi float64) float64 {
	return lo + s.Float64()*(hi-lo)
}

func (s *Sampler) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.Intn(hi-lo+1)
}

func (s *Sampler) NewID() string {
	return s.ids()
}

func pick[T any](s *Sampler, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[s.Intn(len(items))]
}

// WeightedRarity walks the tiers in table order and returns the first whose
// cumulative weight reaches the roll. Zero-weight tiers are never drawn. Any
// float drift past the last bucket lands on the default tier.
func (s *Sampler) WeightedRarity(econ Economy) Rarity {
	var total float64
	for _, tier := range econ.Rarities {
		total += tier.Weight
	}
	r := s.Float64() * total
	var cumulative float64
	for _, tier := range econ.Rarities {
		cumulative += tier.Weight
		if tier.Weight > 0 && r <= cumulative {
			return tier.Rarity
		}
	}
	return econ.defaultTier().Rarity
}

func (s *Sampler) FishName(econ Economy) string {
	name := pick(s, econ.Names)
	if len(econ.NamePrefixes) > 0 && s.Float64() < econ.TitledNameChance {
		return pick(s, econ.NamePrefixes) + " " + name
	}
	return name
}

func (s *Sampler) Color(econ Economy) string {
	return pick(s, econ.Palette)
}

func (s *Sampler) Species(econ Economy) string {
	return pick(s, econ.Species)
}

func (s *Sampler) Size() Size {
	return pick(s, fishSizes)
}
