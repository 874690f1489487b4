package game

import (
	"errors"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"
)

const (
	MinMeter = 0.0
	MaxMeter = 100.0
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrTankFull           = errors.New("tank is full")
	ErrAlreadyOwned       = errors.New("item already owned")
	ErrCatchOnlyItem      = errors.New("item can only be obtained by fishing")
	ErrCategoryMismatch   = errors.New("item category does not match slot")
	ErrInvalidSlot        = errors.New("invalid accessory slot")
	ErrNotOwned           = errors.New("accessory not owned")
	ErrDuplicateFish      = errors.New("fish already in tank")
	ErrInvalidFish        = errors.New("invalid fish")
	ErrInvalidAmount      = errors.New("amount must be > 0")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("incorrect password")
	ErrInvalidUsername    = errors.New("username must be 3-20 characters: lowercase letters, numbers and underscores")
	ErrInvalidPassword    = errors.New("password must be 8-72 characters")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidTicket      = errors.New("catch ticket is invalid or expired")
	ErrCatchSettled       = errors.New("catch already settled")
)

var (
	usernameRE = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)
	colorRE    = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

func ValidateUsername(username string) error {
	if !usernameRE.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidatePassword enforces the bcrypt input limit of 72 bytes.
func ValidatePassword(password string) error {
	if len(password) < 8 || len(password) > 72 {
		return ErrInvalidPassword
	}
	return nil
}

type Accessories struct {
	Hat     string `json:"hat,omitempty" bson:"hat,omitempty"`
	Glasses string `json:"glasses,omitempty" bson:"glasses,omitempty"`
	Effect  string `json:"effect,omitempty" bson:"effect,omitempty"`
}

func (a Accessories) Get(slot Slot) string {
	switch slot {
	case SlotHat:
		return a.Hat
	case SlotGlasses:
		return a.Glasses
	case SlotEffect:
		return a.Effect
	}
	return ""
}

func (a *Accessories) Set(slot Slot, itemID string) {
	switch slot {
	case SlotHat:
		a.Hat = itemID
	case SlotGlasses:
		a.Glasses = itemID
	case SlotEffect:
		a.Effect = itemID
	}
}

type Fish struct {
	ID          string      `json:"id" bson:"id"`
	Species     string      `json:"species" bson:"species"`
	Name        string      `json:"name" bson:"name"`
	Color       string      `json:"color" bson:"color"`
	Size        Size        `json:"size" bson:"size"`
	Rarity      Rarity      `json:"rarity" bson:"rarity"`
	Accessories Accessories `json:"accessories" bson:"accessories"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
}

type NewFish struct {
	Species string `json:"species"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Size    Size   `json:"size"`
}

func (f NewFish) Validate() error {
	species := strings.TrimSpace(f.Species)
	name := strings.TrimSpace(f.Name)
	switch {
	case species == "" || len(species) > 50:
		return errorf(ErrInvalidFish, "species must be 1-50 characters")
	case name == "" || len(name) > 50:
		return errorf(ErrInvalidFish, "name must be 1-50 characters")
	case !colorRE.MatchString(f.Color):
		return errorf(ErrInvalidFish, "color must be a hex code like #FF8844")
	case !f.Size.Valid():
		return errorf(ErrInvalidFish, "size must be sm, md or lg")
	}
	return nil
}

type PoopMarker struct {
	ID        string    `json:"id" bson:"id"`
	X         float64   `json:"x" bson:"x"`
	Y         float64   `json:"y" bson:"y"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type TankState struct {
	Hunger       float64      `json:"hunger" bson:"hunger"`
	Cleanliness  float64      `json:"cleanliness" bson:"cleanliness"`
	Poop         []PoopMarker `json:"poopPositions" bson:"poopPositions"`
	LastPoopTime time.Time    `json:"lastPoopTime" bson:"lastPoopTime"`
}

type Account struct {
	Username         string
	PasswordHash     string
	Coins            int64
	MaxFish          int
	LastActiveAt     time.Time
	Tank             TankState
	Fish             *Collection
	OwnedAccessories []string
	// PendingCatches holds the ids of caught fish still waiting for a keep,
	// release or swap.
	PendingCatches []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone returns a deep copy so engine operations never alias the caller's snapshot.
func (a Account) Clone() Account {
	out := a
	out.Tank.Poop = slices.Clone(a.Tank.Poop)
	out.OwnedAccessories = slices.Clone(a.OwnedAccessories)
	out.PendingCatches = slices.Clone(a.PendingCatches)
	out.Fish = a.Fish.Clone()
	return out
}

func (a Account) Owns(itemID string) bool {
	return slices.Contains(a.OwnedAccessories, itemID)
}

func (a Account) Happiness() float64 {
	return Happiness(a.Tank.Hunger, a.Tank.Cleanliness)
}

func Happiness(hunger, cleanliness float64) float64 {
	return (hunger + cleanliness) / 2
}

func clampMeter(v float64) float64 {
	return math.Max(MinMeter, math.Min(MaxMeter, v))
}

// CleanlinessFor derives cleanliness from the number of poop markers.
func CleanlinessFor(poopCount int, penalty float64) float64 {
	return clampMeter(MaxMeter - float64(poopCount)*penalty)
}
