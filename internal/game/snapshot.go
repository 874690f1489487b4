package game

import (
	"slices"
	"time"
)

// SchemaVersion is the current stored document layout. Version 0 documents
// carry the multi-tank layout with a tanks array and no gameState.
const SchemaVersion = 2

// Stored field paths. Stores accept dotted paths into the document.
const (
	FieldCoins            = "gameState.coins"
	FieldMaxFish          = "gameState.maxFish"
	FieldLastActiveAt     = "gameState.lastActiveAt"
	FieldPendingCatches   = "gameState.pendingCatches"
	FieldHunger           = "tank.hunger"
	FieldCleanliness      = "tank.cleanliness"
	FieldPoop             = "tank.poopPositions"
	FieldLastPoopTime     = "tank.lastPoopTime"
	FieldFish             = "fish"
	FieldOwnedAccessories = "ownedAccessories"
	FieldPasswordHash     = "password_hash"
	FieldUpdatedAt        = "updatedAt"
)

// Update maps dotted field paths to their new values.
type Update map[string]any

type GameStateDoc struct {
	Coins        int64     `json:"coins" bson:"coins"`
	MaxFish      int       `json:"maxFish" bson:"maxFish"`
	LastActiveAt time.Time `json:"lastActiveAt" bson:"lastActiveAt"`

	PendingCatches []string `json:"pendingCatches,omitempty" bson:"pendingCatches,omitempty"`
}

type LegacyTank struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
	Fish []Fish `json:"fish" bson:"fish"`
}

// Document is the persisted form of an Account.
type Document struct {
	Username         string        `json:"username" bson:"username"`
	PasswordHash     string        `json:"password_hash,omitempty" bson:"password_hash,omitempty"`
	SchemaVersion    int           `json:"schemaVersion" bson:"schemaVersion"`
	GameState        *GameStateDoc `json:"gameState,omitempty" bson:"gameState,omitempty"`
	Tank             *TankState    `json:"tank,omitempty" bson:"tank,omitempty"`
	Fish             []Fish        `json:"fish" bson:"fish"`
	OwnedAccessories []string      `json:"ownedAccessories" bson:"ownedAccessories"`
	Tanks            []LegacyTank  `json:"tanks,omitempty" bson:"tanks,omitempty"`
	CreatedAt        time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// DuplicateFishIDs lists fish ids stored more than once, counting legacy tanks.
// Only the first fish with a given id survives loading.
func (d Document) DuplicateFishIDs() []string {
	seen := make(map[string]bool)
	var dups []string
	check := func(fish []Fish) {
		for _, f := range fish {
			if seen[f.ID] && !slices.Contains(dups, f.ID) {
				dups = append(dups, f.ID)
			}
			seen[f.ID] = true
		}
	}
	for _, tank := range d.Tanks {
		check(tank.Fish)
	}
	check(d.Fish)
	return dups
}

func (d Document) NeedsUpgrade() bool {
	return d.GameState == nil || d.Tank == nil || d.SchemaVersion < SchemaVersion || len(d.Tanks) > 0
}

// NewDocument builds a fresh account with the starting economy values.
func NewDocument(econ Economy, username, passwordHash string, now time.Time) Document {
	return Document{
		Username:      username,
		PasswordHash:  passwordHash,
		SchemaVersion: SchemaVersion,
		GameState: &GameStateDoc{
			Coins:        econ.StartingCoins,
			MaxFish:      econ.StartingMaxFish,
			LastActiveAt: now,
		},
		Tank:             startingTank(econ, now),
		Fish:             []Fish{},
		OwnedAccessories: []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func startingTank(econ Economy, now time.Time) *TankState {
	return &TankState{
		Hunger:       econ.StartingHunger,
		Cleanliness:  econ.StartingCleanliness,
		Poop:         []PoopMarker{},
		LastPoopTime: now,
	}
}

// UpgradeDocument brings a stored document to the current layout. It reports
// whether anything changed. Multi-tank documents have their fish merged into
// one tank, trimmed to the starting capacity, and are compensated with coins
// for every fish they had.
func UpgradeDocument(econ Economy, doc Document, now time.Time) (Document, bool) {
	if !doc.NeedsUpgrade() {
		return doc, false
	}
	out := doc
	out.Fish = slices.Clone(doc.Fish)
	if doc.GameState != nil {
		state := *doc.GameState
		state.PendingCatches = slices.Clone(doc.GameState.PendingCatches)
		out.GameState = &state
	}
	if doc.Tank != nil {
		tank := *doc.Tank
		out.Tank = &tank
	}
	if out.GameState == nil {
		var all []Fish
		for _, tank := range doc.Tanks {
			for _, f := range tank.Fish {
				f.Rarity = RarityCommon
				f.Accessories = Accessories{}
				all = append(all, f)
			}
		}
		all = append(all, doc.Fish...)
		keep := NewCollection()
		for _, f := range all {
			if keep.Len() >= econ.StartingMaxFish {
				break
			}
			_ = keep.Add(f)
		}
		out.GameState = &GameStateDoc{
			Coins:        econ.StartingCoins + econ.LegacyFishBonus*int64(len(all)),
			MaxFish:      econ.StartingMaxFish,
			LastActiveAt: now,
		}
		out.Tank = startingTank(econ, now)
		out.Fish = keep.All()
		out.OwnedAccessories = []string{}
	}
	if out.Tank == nil {
		out.Tank = startingTank(econ, now)
	}
	if out.Tank.Poop == nil {
		out.Tank.Poop = []PoopMarker{}
	}
	if out.Fish == nil {
		out.Fish = []Fish{}
	}
	for i := range out.Fish {
		if out.Fish[i].Rarity == "" {
			out.Fish[i].Rarity = RarityCommon
		}
	}
	if out.OwnedAccessories == nil {
		out.OwnedAccessories = []string{}
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.Tanks = nil
	out.SchemaVersion = SchemaVersion
	out.UpdatedAt = now
	return out, true
}

// AccountFromDocument expects an upgraded document.
func AccountFromDocument(doc Document) Account {
	acct := Account{
		Username:         doc.Username,
		PasswordHash:     doc.PasswordHash,
		Fish:             NewCollection(doc.Fish...),
		OwnedAccessories: append([]string(nil), doc.OwnedAccessories...),
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
	if doc.GameState != nil {
		acct.Coins = doc.GameState.Coins
		acct.MaxFish = doc.GameState.MaxFish
		acct.LastActiveAt = doc.GameState.LastActiveAt
		acct.PendingCatches = slices.Clone(doc.GameState.PendingCatches)
	}
	if doc.Tank != nil {
		acct.Tank = *doc.Tank
		acct.Tank.Poop = append([]PoopMarker{}, doc.Tank.Poop...)
	}
	return acct
}

func DocumentFromAccount(acct Account) Document {
	tank := acct.Tank
	tank.Poop = append([]PoopMarker{}, acct.Tank.Poop...)
	return Document{
		Username:      acct.Username,
		PasswordHash:  acct.PasswordHash,
		SchemaVersion: SchemaVersion,
		GameState: &GameStateDoc{
			Coins:          acct.Coins,
			MaxFish:        acct.MaxFish,
			LastActiveAt:   acct.LastActiveAt,
			PendingCatches: slices.Clone(acct.PendingCatches),
		},
		Tank:             &tank,
		Fish:             acct.Fish.All(),
		OwnedAccessories: append([]string{}, acct.OwnedAccessories...),
		CreatedAt:        acct.CreatedAt,
		UpdatedAt:        acct.UpdatedAt,
	}
}

// TankUpdate is the field set written after a reconciliation.
func TankUpdate(acct Account, now time.Time) Update {
	return Update{
		FieldHunger:       acct.Tank.Hunger,
		FieldCleanliness:  acct.Tank.Cleanliness,
		FieldPoop:         nonNilPoop(acct.Tank.Poop),
		FieldLastPoopTime: acct.Tank.LastPoopTime,
		FieldLastActiveAt: acct.LastActiveAt,
		FieldUpdatedAt:    now,
	}
}

func nonNilPoop(p []PoopMarker) []PoopMarker {
	if p == nil {
		return []PoopMarker{}
	}
	return p
}
