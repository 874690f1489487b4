package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns a non-nil error when password does not match hash.
	Compare(hash, password string) error
}

// TicketSigner binds a provisional catch to a user so keep, release and swap
// cannot be called with a fish the server never handed out.
type TicketSigner interface {
	Issue(username string, fish Fish, now time.Time) (string, error)
	// Verify fails with ErrInvalidTicket.
	Verify(token, username string, now time.Time) (Fish, error)
}

type Options struct {
	Economy Economy
	Hasher  PasswordHasher
	Tickets TicketSigner
	Sampler *Sampler
	Clock   func() time.Time
}

// Service runs one engine operation per call: load the snapshot, transform it
// with a single now, write back the changed fields. Concurrent calls for the
// same user may overwrite each other's changes.
type Service struct {
	store   Store
	log     *slog.Logger
	econ    Economy
	now     func() time.Time
	hasher  PasswordHasher
	tickets TicketSigner
	tank    *Reconciler
	fishing *Resolver
	shop    *Ledger
}

func NewService(store Store, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	econ := opts.Economy
	if len(econ.Rarities) == 0 {
		econ = DefaultEconomy()
	}
	sampler := opts.Sampler
	if sampler == nil {
		sampler = NewSampler(nil)
	}
	clock := opts.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		store:   store,
		log:     logger,
		econ:    econ,
		now:     clock,
		hasher:  opts.Hasher,
		tickets: opts.Tickets,
		tank:    NewReconciler(econ, sampler),
		fishing: NewResolver(econ, sampler),
		shop:    NewLedger(econ),
	}
}

func (s *Service) Economy() Economy {
	return s.econ
}

// Login signs in an existing user or creates the account on first use.
// Accounts stored without a password adopt the one supplied here.
func (s *Service) Login(ctx context.Context, username, password string) (SessionResult, error) {
	if err := ValidateUsername(username); err != nil {
		return SessionResult{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return SessionResult{}, err
	}
	if s.hasher == nil {
		return SessionResult{}, errors.New("password hasher not configured")
	}
	now := s.now()

	doc, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, ErrAccountNotFound) {
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return SessionResult{}, fmt.Errorf("hash password: %w", err)
		}
		if err := s.store.Create(ctx, NewDocument(s.econ, username, hash, now)); err != nil {
			return SessionResult{}, err
		}
		s.log.Info("account created", "username", username)
		return SessionResult{Username: username, IsNewUser: true}, nil
	}
	if err != nil {
		return SessionResult{}, err
	}

	if doc.PasswordHash == "" {
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return SessionResult{}, fmt.Errorf("hash password: %w", err)
		}
		if err := s.store.SetFields(ctx, username, Update{FieldPasswordHash: hash, FieldUpdatedAt: now}); err != nil {
			return SessionResult{}, err
		}
		s.log.Info("legacy account password set", "username", username)
		return SessionResult{Username: username}, nil
	}
	if err := s.hasher.Compare(doc.PasswordHash, password); err != nil {
		return SessionResult{}, ErrInvalidCredentials
	}
	return SessionResult{Username: username}, nil
}

// load fetches the account and upgrades older document layouts in place.
func (s *Service) load(ctx context.Context, username string, now time.Time) (Account, error) {
	doc, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return Account{}, err
	}
	s.warnDuplicates(doc)
	if upgraded, changed := UpgradeDocument(s.econ, doc, now); changed {
		if err := s.store.Replace(ctx, upgraded); err != nil {
			return Account{}, fmt.Errorf("upgrade account: %w", err)
		}
		s.log.Info("account upgraded", "username", username, "schema_version", upgraded.SchemaVersion, "fish", len(upgraded.Fish))
		doc = upgraded
	}
	return AccountFromDocument(doc), nil
}

func (s *Service) State(ctx context.Context, username string) (GameStateView, error) {
	acct, err := s.load(ctx, username, s.now())
	if err != nil {
		return GameStateView{}, err
	}
	tank := acct.Tank
	tank.Poop = nonNilPoop(tank.Poop)
	return GameStateView{
		Coins:            acct.Coins,
		MaxFish:          acct.MaxFish,
		LastActiveAt:     acct.LastActiveAt,
		Tank:             tank,
		Fish:             acct.Fish.All(),
		OwnedAccessories: nonNilStrings(acct.OwnedAccessories),
		Happiness:        acct.Happiness(),
	}, nil
}

func (s *Service) Tick(ctx context.Context, username string) (TickResult, error) {
	now := s.now()
	acct, err := s.load(ctx, username, now)
	if err != nil {
		return TickResult{}, err
	}
	next, report := s.tank.Reconcile(acct, now)
	if err := s.store.SetFields(ctx, username, TankUpdate(next, now)); err != nil {
		return TickResult{}, err
	}
	if report.PoopAdded > 0 {
		s.log.Debug("poop generated", "username", username, "count", report.PoopAdded)
	}
	return TickResult{
		Hunger:       report.Hunger,
		Cleanliness:  report.Cleanliness,
		Happiness:    report.Happiness,
		Coins:        next.Coins,
		MaxFish:      next.MaxFish,
		PoopCount:    len(next.Tank.Poop),
		PoopAdded:    report.PoopAdded,
		LastActiveAt: next.LastActiveAt,
	}, nil
}

func (s *Service) Feed(ctx context.Context, username string) (FeedResult, error) {
	now := s.now()
	acct, err := s.load(ctx, username, now)
	if err != nil {
		return FeedResult{}, err
	}
	next, report, err := s.tank.Feed(acct)
	if err != nil {
		return FeedResult{}, err
	}
	if err := s.store.SetFields(ctx, username, Update{
		FieldHunger:    next.Tank.Hunger,
		FieldCoins:     next.Coins,
		FieldUpdatedAt: now,
	}); err != nil {
		return FeedResult{}, err
	}
	return FeedResult{Success: true, NewHunger: report.Hunger, CoinsSpent: report.CoinsSpent, NewCoins: report.Coins}, nil
}

func (s *Service) Clean(ctx context.Context, username string) (CleanResult, error) {
	now := s.now()
	acct, err := s.load(ctx, username, now)
	if err != nil {
		return CleanResult{}, err
	}
	next, report := s.tank.CleanAll(acct)
	if err := s.store.SetFields(ctx, username, Update{
		FieldPoop:        nonNilPoop(next.Tank.Poop),
		FieldCleanliness: next.Tank.Cleanliness,
		FieldUpdatedAt:   now,
	}); err != nil {
		return CleanResult{}, err
	}
	return CleanResult{Success: true, NewCleanliness: report.Cleanliness, PoopRemoved: report.Removed}, nil
}

func (s *Service) RemovePoop(ctx context.Context, username, poopID string) (CleanResult, error) {
	now := s.now()
	acct, err := s.load(ctx, username, now)
	if err != nil {
		return CleanResult{}, err
	}
	next, report := s.tank.CleanOne(acct, poopID)
	if err := s.store.SetFields(ctx, username, Update{
		FieldPoop:        nonNilPoop(next.Tank.Poop),
		FieldCleanliness: next.Tank.Cleanliness,
		FieldUpdatedAt:   now,
	}); err != nil {
		return CleanResult{}, err
	}
	return CleanResult{
		Success:        true,
		NewCleanliness: report.Cleanliness,
		PoopRemoved:    report.Removed,
		RemainingPoop:  report.Remaining,
	}, nil
}

func (s *Service) AddCoins(ctx context.Context, username string, amount int64) (CoinsResult, error) {
	if amount <= 0 {
		return CoinsResult{}, ErrInvalidAmount
	}
	now := s.now()
	acct, err := s.load(ctx, username, now)
	if err != nil {
		return CoinsResult{}, err
	}
	total := acct.Coins + amount
	if err := s.store.SetFields(ctx, username, Update{FieldCoins: total, FieldUpdatedAt: now}); err != nil {
		return CoinsResult{}, err
	}
	return CoinsResult{Success: true, CoinsAdded: amount, NewTotal: total}, nil
}

func (s *Service) AddFish(ctx context.Context, username string, in NewFish) (FishResult, error) {
	now := s.now()
	fish, err := s.fishing.NewManualFish(in, now)
	if err != nil {
		return FishResult{}, err
	}
	acct, err := s.load(ctx, username, now)
	if err != nil {
		return FishResult{}, err
	}
	if _, err := s.fishing.Keep(acct, fish); err != nil {
		return FishResult{}, err
	}
	if err := s.store.Push(ctx, username, FieldFish, fish, Update{FieldUpdatedAt: now}); err != nil {
		return FishResult{}, err
	}
	return FishResult{Success: true, Fish: fish}, nil
}

func (s *Service) ReleaseFish(ctx context.Context, username, fishID string) (ReleaseFishResult, error) {
	now := s.now()
	acct, err := s.load(ctx, username, now)
	if err != nil {
		return ReleaseFishResult{}, err
	}
	if _, _, err := s.fishing.RemoveFish(acct, fishID); err != nil {
		return ReleaseFishResult{}, err
	}
	removed, err := s.store.Pull(ctx, username, FieldFish, fishID, Update{FieldUpdatedAt: now})
	if err != nil {
		return ReleaseFishResult{}, err
	}
	if !removed {
		return ReleaseFishResult{}, errorf(ErrNotFound, "fish %s", fishID)
	}
	return ReleaseFishResult{Success: true, FishID: fishID}, nil
}

func (s *Service) ApplyAccessory(ctx context.Context, username, fishID, slot, itemID string) (FishResult, error) {
	now := s.now()
	acct, err := s.load(ctx, username, now)
	if err != nil {
		return FishResult{}, err
	}
	next, fish, err := s.shop.ApplyAccessory(acct, fishID, slot, itemID)
	if err != nil {
		return FishResult{}, err
	}
	if err := s.store.SetFields(ctx, username, Update{FieldFish: next.Fish.All(), FieldUpdatedAt: now}); err != nil {
		return FishResult{}, err
	}
	return FishResult{Success: true, Fish: fish}, nil
}

func (s *Service) Spawns(ctx context.Context, username string) ([]Spawn, error) {
	if _, err := s.load(ctx, username, s.now()); err != nil {
		return nil, err
	}
	return s.fishing.Spawns(), nil
}

func (s *Service) Catch(ctx context.Context, username, spawnID string, hints CatchHints) (CatchResult, error) {
	now := s.now()
	acct, err := s.load(ctx, username, now)
	if err != nil {
		return CatchResult{}, err
	}
	next, outcome := s.fishing.ResolveCatch(acct, hints, now)
	result := CatchResult{
		Success:          true,
		ResultType:       outcome.Kind,
		CurrentFishCount: acct.Fish.Len(),
		MaxFish:          acct.MaxFish,
		TankFull:         acct.Fish.Len() >= acct.MaxFish,
	}

	switch outcome.Kind {
	case OutcomeCosmetic:
		if err := s.store.Push(ctx, username, FieldOwnedAccessories, outcome.Cosmetic.ID, Update{FieldUpdatedAt: now}); err != nil {
			return CatchResult{}, err
		}
		result.Cosmetic = outcome.Cosmetic
		result.Message = fmt.Sprintf("You caught a rare cosmetic: %s!", outcome.Cosmetic.Name)
	case OutcomeBonusCoins:
		if err := s.store.SetFields(ctx, username, Update{FieldCoins: next.Coins, FieldUpdatedAt: now}); err != nil {
			return CatchResult{}, err
		}
		result.CoinsEarned = outcome.BonusCoins
		result.Message = fmt.Sprintf("You found a treasure! +%d coins", outcome.BonusCoins)
	case OutcomeJunk:
		result.JunkItem = outcome.Junk
		result.Message = fmt.Sprintf("You caught... %s. Better throw it back!", outcome.Junk)
	case OutcomeFish:
		if s.tickets == nil {
			return CatchResult{}, errors.New("catch tickets not configured")
		}
		ticket, err := s.tickets.Issue(username, *outcome.Fish, now)
		if err != nil {
			return CatchResult{}, fmt.Errorf("issue catch ticket: %w", err)
		}
		// A new fish on the line replaces any catch left undecided.
		if err := s.store.SetFields(ctx, username, Update{
			FieldPendingCatches: []string{outcome.Fish.ID},
			FieldUpdatedAt:      now,
		}); err != nil {
			return CatchResult{}, err
		}
		result.Fish = outcome.Fish
		result.Rarity = outcome.Fish.Rarity
		result.CoinValue = outcome.CoinValue
		result.Ticket = ticket
		result.Message = fmt.Sprintf("You caught a %s %s!", outcome.Fish.Rarity, outcome.Fish.Species)
	}
	s.log.Debug("catch resolved", "username", username, "spawn_id", spawnID, "result", outcome.Kind)
	return result, nil
}

// caught verifies the ticket and loads the account with the catch already
// taken off its pending list.
func (s *Service) caught(ctx context.Context, username, ticket string, now time.Time) (Account, Fish, error) {
	if s.tickets == nil {
		return Account{}, Fish{}, errors.New("catch tickets not configured")
	}
	fish, err := s.tickets.Verify(ticket, username, now)
	if err != nil {
		return Account{}, Fish{}, err
	}
	acct, err := s.load(ctx, username, now)
	if err != nil {
		return Account{}, Fish{}, err
	}
	acct, err = s.fishing.Settle(acct, fish)
	if err != nil {
		return Account{}, Fish{}, err
	}
	return acct, fish, nil
}

// claim removes the catch from the stored pending list and applies update in
// the same write. Of two concurrent decisions on one catch only one lands.
func (s *Service) claim(ctx context.Context, username, fishID string, update Update) error {
	removed, err := s.store.Pull(ctx, username, FieldPendingCatches, fishID, update)
	if err != nil {
		return err
	}
	if !removed {
		return errorf(ErrCatchSettled, "fish %s", fishID)
	}
	return nil
}

func (s *Service) Keep(ctx context.Context, username, ticket string) (KeepResult, error) {
	now := s.now()
	acct, fish, err := s.caught(ctx, username, ticket, now)
	if err != nil {
		return KeepResult{}, err
	}
	next, err := s.fishing.Keep(acct, fish)
	if err != nil {
		return KeepResult{}, err
	}
	if err := s.claim(ctx, username, fish.ID, Update{
		FieldFish:      next.Fish.All(),
		FieldUpdatedAt: now,
	}); err != nil {
		return KeepResult{}, err
	}
	return KeepResult{
		Success:   true,
		Fish:      fish,
		FishCount: next.Fish.Len(),
		MaxFish:   next.MaxFish,
		Message:   fmt.Sprintf("%s joined your tank!", fish.Name),
	}, nil
}

func (s *Service) Release(ctx context.Context, username, ticket string) (ReleaseResult, error) {
	now := s.now()
	acct, fish, err := s.caught(ctx, username, ticket, now)
	if err != nil {
		return ReleaseResult{}, err
	}
	next, earned := s.fishing.Release(acct, fish)
	if err := s.claim(ctx, username, fish.ID, Update{FieldCoins: next.Coins, FieldUpdatedAt: now}); err != nil {
		return ReleaseResult{}, err
	}
	return ReleaseResult{
		Success:     true,
		CoinsEarned: earned,
		NewCoins:    next.Coins,
		Message:     fmt.Sprintf("Released the fish and earned %d coins!", earned),
	}, nil
}

func (s *Service) Swap(ctx context.Context, username, ticket, releaseFishID string) (SwapResult, error) {
	now := s.now()
	acct, fish, err := s.caught(ctx, username, ticket, now)
	if err != nil {
		return SwapResult{}, err
	}
	next, report, err := s.fishing.Swap(acct, fish, releaseFishID)
	if err != nil {
		return SwapResult{}, err
	}
	if err := s.claim(ctx, username, fish.ID, Update{
		FieldFish:      next.Fish.All(),
		FieldCoins:     next.Coins,
		FieldUpdatedAt: now,
	}); err != nil {
		return SwapResult{}, err
	}
	return SwapResult{
		Success:      true,
		AddedFish:    report.Added,
		ReleasedFish: report.Released,
		CoinsEarned:  report.CoinsEarned,
		NewCoins:     report.Coins,
		Message:      fmt.Sprintf("Swapped %s for %s! +%d coins", report.Released.Name, report.Added.Name, report.CoinsEarned),
	}, nil
}

func (s *Service) ShopItems(ctx context.Context, username string) (ShopItemsResult, error) {
	acct, err := s.load(ctx, username, s.now())
	if err != nil {
		return ShopItemsResult{}, err
	}
	return ShopItemsResult{Items: s.shop.Listing(acct), Coins: acct.Coins}, nil
}

func (s *Service) Purchase(ctx context.Context, username, itemID string) (PurchaseResult, error) {
	now := s.now()
	acct, err := s.load(ctx, username, now)
	if err != nil {
		return PurchaseResult{}, err
	}
	next, item, err := s.shop.Purchase(acct, itemID)
	if err != nil {
		return PurchaseResult{}, err
	}
	if err := s.store.Push(ctx, username, FieldOwnedAccessories, item.ID, Update{
		FieldCoins:     next.Coins,
		FieldUpdatedAt: now,
	}); err != nil {
		return PurchaseResult{}, err
	}
	s.log.Info("item purchased", "username", username, "item", item.ID, "price", item.Price)
	return PurchaseResult{
		Success:  true,
		Item:     item,
		NewCoins: next.Coins,
		Message:  fmt.Sprintf("Purchased %s!", item.Name),
	}, nil
}

func (s *Service) Owned(ctx context.Context, username string) (OwnedCosmetics, error) {
	acct, err := s.load(ctx, username, s.now())
	if err != nil {
		return OwnedCosmetics{}, err
	}
	return s.shop.Owned(acct), nil
}

type MigrationReport struct {
	Scanned  int
	Upgraded int
	Failed   int
}

// MigrateAll upgrades every stored document. With dryRun set nothing is written.
func (s *Service) MigrateAll(ctx context.Context, dryRun bool) (MigrationReport, error) {
	names, err := s.store.Usernames(ctx)
	if err != nil {
		return MigrationReport{}, err
	}
	var report MigrationReport
	for _, username := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++
		doc, err := s.store.FindByUsername(ctx, username)
		if err != nil {
			report.Failed++
			s.log.Error("load account failed", "username", username, "error", err)
			continue
		}
		s.warnDuplicates(doc)
		upgraded, changed := UpgradeDocument(s.econ, doc, s.now())
		if !changed {
			continue
		}
		if !dryRun {
			if err := s.store.Replace(ctx, upgraded); err != nil {
				report.Failed++
				s.log.Error("upgrade account failed", "username", username, "error", err)
				continue
			}
		}
		report.Upgraded++
		s.log.Info("account upgraded", "username", username, "fish", len(upgraded.Fish), "coins", upgraded.GameState.Coins, "dry_run", dryRun)
	}
	return report, nil
}

func (s *Service) warnDuplicates(doc Document) {
	if dups := doc.DuplicateFishIDs(); len(dups) > 0 {
		s.log.Warn("duplicate fish dropped", "username", doc.Username, "fish_ids", dups)
	}
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
