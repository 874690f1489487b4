package game

import "time"

type SessionResult struct {
	Username  string `json:"username"`
	IsNewUser bool   `json:"isNewUser"`
}

type GameStateView struct {
	Coins            int64     `json:"coins"`
	MaxFish          int       `json:"maxFish"`
	LastActiveAt     time.Time `json:"lastActiveAt"`
	Tank             TankState `json:"tank"`
	Fish             []Fish    `json:"fish"`
	OwnedAccessories []string  `json:"ownedAccessories"`
	Happiness        float64   `json:"happiness"`
}

type TickResult struct {
	Hunger       float64   `json:"hunger"`
	Cleanliness  float64   `json:"cleanliness"`
	Happiness    float64   `json:"happiness"`
	Coins        int64     `json:"coins"`
	MaxFish      int       `json:"maxFish"`
	PoopCount    int       `json:"poopCount"`
	PoopAdded    int       `json:"poopAdded"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

type FeedResult struct {
	Success    bool    `json:"success"`
	NewHunger  float64 `json:"newHunger"`
	CoinsSpent int64   `json:"coinsSpent"`
	NewCoins   int64   `json:"newCoins"`
}

type CleanResult struct {
	Success        bool    `json:"success"`
	NewCleanliness float64 `json:"newCleanliness"`
	PoopRemoved    int     `json:"poopRemoved"`
	RemainingPoop  int     `json:"remainingPoop"`
}

type CoinsResult struct {
	Success    bool  `json:"success"`
	CoinsAdded int64 `json:"coinsAdded"`
	NewTotal   int64 `json:"newTotal"`
}

type FishResult struct {
	Success bool `json:"success"`
	Fish    Fish `json:"fish"`
}

type CatchResult struct {
	Success          bool          `json:"success"`
	ResultType       OutcomeKind   `json:"resultType"`
	Fish             *Fish         `json:"fish,omitempty"`
	Rarity           Rarity        `json:"rarity,omitempty"`
	CoinValue        int64         `json:"coinValue,omitempty"`
	JunkItem         string        `json:"junkItem,omitempty"`
	Cosmetic         *CosmeticItem `json:"cosmetic,omitempty"`
	CoinsEarned      int64         `json:"coinsEarned,omitempty"`
	TankFull         bool          `json:"tankFull"`
	CurrentFishCount int           `json:"currentFishCount"`
	MaxFish          int           `json:"maxFish"`
	Message          string        `json:"message"`
	// Ticket must be presented to keep, release or swap a caught fish.
	Ticket string `json:"ticket,omitempty"`
}

type KeepResult struct {
	Success   bool   `json:"success"`
	Fish      Fish   `json:"fish"`
	FishCount int    `json:"fishCount"`
	MaxFish   int    `json:"maxFish"`
	Message   string `json:"message"`
}

type ReleaseResult struct {
	Success     bool   `json:"success"`
	CoinsEarned int64  `json:"coinsEarned"`
	NewCoins    int64  `json:"newCoins"`
	Message     string `json:"message"`
}

type SwapResult struct {
	Success      bool   `json:"success"`
	AddedFish    Fish   `json:"addedFish"`
	ReleasedFish Fish   `json:"releasedFish"`
	CoinsEarned  int64  `json:"coinsEarned"`
	NewCoins     int64  `json:"newCoins"`
	Message      string `json:"message"`
}

type ShopItemsResult struct {
	Items []ShopListing `json:"items"`
	Coins int64         `json:"coins"`
}

type PurchaseResult struct {
	Success  bool         `json:"success"`
	Item     CosmeticItem `json:"item"`
	NewCoins int64        `json:"newCoins"`
	Message  string       `json:"message"`
}

type ReleaseFishResult struct {
	Success bool   `json:"success"`
	FishID  string `json:"fishId"`
}
