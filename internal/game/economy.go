package game

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityLegendary Rarity = "legendary"
)

type Size string

const (
	SizeSmall  Size = "sm"
	SizeMedium Size = "md"
	SizeLarge  Size = "lg"
)

var fishSizes = []Size{SizeSmall, SizeMedium, SizeLarge}

func (s Size) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// Slot is both an accessory slot on a fish and a cosmetic catalog category.
type Slot string

const (
	SlotHat     Slot = "hat"
	SlotGlasses Slot = "glasses"
	SlotEffect  Slot = "effect"
)

var accessorySlots = []Slot{SlotHat, SlotGlasses, SlotEffect}

func ParseSlot(v string) (Slot, error) {
	switch s := Slot(v); s {
	case SlotHat, SlotGlasses, SlotEffect:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSlot, v)
}

type RarityTier struct {
	Rarity    Rarity  `yaml:"rarity" json:"rarity"`
	Weight    float64 `yaml:"weight" json:"weight"`
	CoinValue int64   `yaml:"coin_value" json:"coin_value"`
	// SwimSeconds is how long the lake silhouette takes to cross the screen.
	SwimSeconds float64 `yaml:"swim_seconds" json:"swim_seconds"`
}

type CosmeticItem struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Category  Slot   `yaml:"category" json:"category"`
	Price     int64  `yaml:"price" json:"price"`
	CatchOnly bool   `yaml:"catch_only" json:"catch_only"`
}

// Economy holds every tunable of the game. It is passed by value into the
// engines and never mutated after construction.
type Economy struct {
	StartingCoins       int64   `yaml:"starting_coins"`
	StartingMaxFish     int     `yaml:"starting_max_fish"`
	StartingHunger      float64 `yaml:"starting_hunger"`
	StartingCleanliness float64 `yaml:"starting_cleanliness"`

	HungerDecayPerMinute float64       `yaml:"hunger_decay_per_minute"`
	HungerFeedRestore    float64       `yaml:"hunger_feed_restore"`
	FeedCost             int64         `yaml:"feed_cost"`
	PoopInterval         time.Duration `yaml:"poop_interval"`
	PoopPenalty          float64       `yaml:"poop_penalty"`
	ElapsedCap           time.Duration `yaml:"elapsed_cap"`

	Rarities []RarityTier `yaml:"rarities"`

	CosmeticChance float64 `yaml:"cosmetic_chance"`
	JunkChance     float64 `yaml:"junk_chance"`

	Species      []string `yaml:"species"`
	Junk         []string `yaml:"junk"`
	Palette      []string `yaml:"palette"`
	NamePrefixes []string `yaml:"name_prefixes"`
	Names        []string `yaml:"names"`
	// TitledNameChance is the probability a generated fish name gets a prefix.
	TitledNameChance float64 `yaml:"titled_name_chance"`

	MinSpawns int `yaml:"min_spawns"`
	MaxSpawns int `yaml:"max_spawns"`

	Catalog []CosmeticItem `yaml:"catalog"`

	BonusCoinsAllCosmetics int64 `yaml:"bonus_coins_all_cosmetics"`
	LegacyFishBonus        int64 `yaml:"legacy_fish_bonus"`
}

func DefaultEconomy() Economy {
	return Economy{
		StartingCoins:       100,
		StartingMaxFish:     10,
		StartingHunger:      100,
		StartingCleanliness: 100,

		HungerDecayPerMinute: 1.0,
		HungerFeedRestore:    25.0,
		FeedCost:             0,
		PoopInterval:         120 * time.Second,
		PoopPenalty:          3.0,
		ElapsedCap:           300 * time.Second,

		Rarities: []RarityTier{
			{Rarity: RarityCommon, Weight: 60, CoinValue: 5, SwimSeconds: 8.0},
			{Rarity: RarityUncommon, Weight: 25, CoinValue: 15, SwimSeconds: 5.0},
			{Rarity: RarityRare, Weight: 12, CoinValue: 40, SwimSeconds: 3.0},
			{Rarity: RarityLegendary, Weight: 3, CoinValue: 100, SwimSeconds: 1.5},
		},

		CosmeticChance: 0.05,
		JunkChance:     0.10,

		Species: []string{"Angelfish", "Clownfish", "Seahorse", "Dolphin", "Evilfish"},
		Junk:    []string{"Old Boot", "Empty Can", "Seaweed Clump", "Rusty Anchor", "Broken Shell"},
		Palette: []string{
			"#ff8844", "#4488ff", "#ffcc44", "#ff4488", "#44ff88",
			"#8844ff", "#ff6666", "#66ccff", "#ffaa00", "#00ccaa",
			"#ff88cc", "#88ccff", "#ccff88", "#ffcc88", "#88ffcc",
		},
		NamePrefixes: []string{"Captain", "Sir", "Lady", "Professor", "Duke", "Baron", "Count", "Dr."},
		Names: []string{
			"Bubbles", "Splash", "Finn", "Coral", "Neptune", "Azure", "Shimmer", "Glitter",
			"Sparkle", "Wavey", "Sunny", "Marina", "Pearl", "Sandy", "Ripple", "Dory",
			"Nemo", "Gilbert", "Oscar", "Goldie", "Flash", "Zippy", "Dash", "Blitz",
		},
		TitledNameChance: 0.3,

		MinSpawns: 3,
		MaxSpawns: 6,

		Catalog: []CosmeticItem{
			{ID: "top_hat", Name: "Top Hat", Category: SlotHat, Price: 50},
			{ID: "hat_party", Name: "Party Hat", Category: SlotHat, Price: 50},
			{ID: "hat_beanie", Name: "Cozy Beanie", Category: SlotHat, Price: 80},
			{ID: "hat_tophat", Name: "Fancy Top Hat", Category: SlotHat, Price: 120},
			{ID: "hat_crown", Name: "Royal Crown", Category: SlotHat, Price: 150},
			{ID: "hat_pirate", Name: "Pirate Hat", Category: SlotHat, Price: 100},
			{ID: "hat_wizard", Name: "Wizard Hat", Category: SlotHat, Price: 200},
			{ID: "hat_fishing", Name: "Fishing Cap", Category: SlotHat, CatchOnly: true},
			{ID: "effect_bubbles", Name: "Bubble Trail", Category: SlotEffect, Price: 100},
			{ID: "effect_sparkle", Name: "Sparkle Aura", Category: SlotEffect, Price: 200},
			{ID: "effect_hearts", Name: "Love Hearts", Category: SlotEffect, Price: 150},
			{ID: "effect_rainbow", Name: "Rainbow Trail", Category: SlotEffect, Price: 250},
			{ID: "effect_lucky", Name: "Lucky Clover", Category: SlotEffect, CatchOnly: true},
		},

		BonusCoinsAllCosmetics: 50,
		LegacyFishBonus:        10,
	}
}

// LoadEconomyFile overlays the YAML file at path onto the defaults. Lists in
// the file replace the default lists wholesale.
func LoadEconomyFile(path string) (Economy, error) {
	econ := DefaultEconomy()
	raw, err := os.ReadFile(path)
	if err != nil {
		return econ, fmt.Errorf("read economy file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &econ); err != nil {
		return econ, fmt.Errorf("parse economy file: %w", err)
	}
	if err := econ.Validate(); err != nil {
		return econ, err
	}
	return econ, nil
}

func (e Economy) Validate() error {
	if e.StartingMaxFish <= 0 {
		return fmt.Errorf("starting_max_fish must be > 0")
	}
	if e.StartingCoins < 0 || e.FeedCost < 0 || e.BonusCoinsAllCosmetics < 0 {
		return fmt.Errorf("coin amounts must be >= 0")
	}
	if e.PoopInterval <= 0 {
		return fmt.Errorf("poop_interval must be > 0")
	}
	if e.ElapsedCap < 0 {
		return fmt.Errorf("elapsed_cap must be >= 0")
	}
	if len(e.Rarities) == 0 {
		return fmt.Errorf("at least one rarity tier is required")
	}
	var total float64
	for _, tier := range e.Rarities {
		if tier.Weight < 0 {
			return fmt.Errorf("rarity %s has negative weight", tier.Rarity)
		}
		total += tier.Weight
	}
	if total <= 0 {
		return fmt.Errorf("rarity weights must sum to > 0")
	}
	if e.CosmeticChance < 0 || e.JunkChance < 0 || e.CosmeticChance+e.JunkChance > 1 {
		return fmt.Errorf("cosmetic_chance + junk_chance must be within [0,1]")
	}
	if len(e.Species) == 0 || len(e.Junk) == 0 || len(e.Palette) == 0 || len(e.Names) == 0 {
		return fmt.Errorf("species, junk, palette and names must not be empty")
	}
	if e.MinSpawns <= 0 || e.MaxSpawns < e.MinSpawns {
		return fmt.Errorf("spawn range must satisfy 0 < min_spawns <= max_spawns")
	}
	seen := make(map[string]struct{}, len(e.Catalog))
	for _, item := range e.Catalog {
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("duplicate catalog item %q", item.ID)
		}
		seen[item.ID] = struct{}{}
		if _, err := ParseSlot(string(item.Category)); err != nil {
			return fmt.Errorf("catalog item %q: %w", item.ID, err)
		}
	}
	return nil
}

func (e Economy) Item(id string) (CosmeticItem, bool) {
	for _, item := range e.Catalog {
		if item.ID == id {
			return item, true
		}
	}
	return CosmeticItem{}, false
}

func (e Economy) Tier(r Rarity) (RarityTier, bool) {
	for _, tier := range e.Rarities {
		if tier.Rarity == r {
			return tier, true
		}
	}
	return RarityTier{}, false
}

// CoinValue falls back to the default tier for rarities the table does not know.
func (e Economy) CoinValue(r Rarity) int64 {
	if tier, ok := e.Tier(r); ok {
		return tier.CoinValue
	}
	return e.defaultTier().CoinValue
}

func (e Economy) defaultTier() RarityTier {
	if tier, ok := e.Tier(RarityCommon); ok {
		return tier
	}
	return e.Rarities[0]
}

func (e Economy) hasSpecies(name string) bool {
	for _, s := range e.Species {
		if s == name {
			return true
		}
	}
	return false
}

func (e Economy) catchOnlyItems() []CosmeticItem {
	var out []CosmeticItem
	for _, item := range e.Catalog {
		if item.CatchOnly {
			out = append(out, item)
		}
	}
	return out
}
