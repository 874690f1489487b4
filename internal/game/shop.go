package game

import "sort"

type ShopListing struct {
	CosmeticItem
	Owned  bool `json:"owned"`
	CanBuy bool `json:"canBuy"`
}

type OwnedCosmetics struct {
	Hat     []CosmeticItem `json:"hat"`
	Glasses []CosmeticItem `json:"glasses"`
	Effect  []CosmeticItem `json:"effect"`
}

type Ledger struct {
	econ Economy
}

func NewLedger(econ Economy) *Ledger {
	return &Ledger{econ: econ}
}

func (l *Ledger) Purchase(acct Account, itemID string) (Account, CosmeticItem, error) {
	item, ok := l.econ.Item(itemID)
	if !ok {
		return acct, CosmeticItem{}, errorf(ErrNotFound, "item %s", itemID)
	}
	if item.CatchOnly {
		return acct, item, errorf(ErrCatchOnlyItem, "%s", item.Name)
	}
	if acct.Owns(item.ID) {
		return acct, item, errorf(ErrAlreadyOwned, "%s", item.Name)
	}
	if acct.Coins < item.Price {
		return acct, item, errorf(ErrInsufficientFunds, "%s costs %d coins, have %d", item.Name, item.Price, acct.Coins)
	}
	next := acct.Clone()
	next.Coins -= item.Price
	next.OwnedAccessories = append(next.OwnedAccessories, item.ID)
	return next, item, nil
}

func (l *Ledger) Listing(acct Account) []ShopListing {
	out := make([]ShopListing, 0, len(l.econ.Catalog))
	for _, item := range l.econ.Catalog {
		owned := acct.Owns(item.ID)
		out = append(out, ShopListing{
			CosmeticItem: item,
			Owned:        owned,
			CanBuy:       !owned && !item.CatchOnly && acct.Coins >= item.Price,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.Name < b.Name
	})
	return out
}

// Owned groups the account's cosmetics by slot. Ids no longer in the catalog
// are skipped.
func (l *Ledger) Owned(acct Account) OwnedCosmetics {
	out := OwnedCosmetics{Hat: []CosmeticItem{}, Glasses: []CosmeticItem{}, Effect: []CosmeticItem{}}
	for _, id := range acct.OwnedAccessories {
		item, ok := l.econ.Item(id)
		if !ok {
			continue
		}
		switch item.Category {
		case SlotHat:
			out.Hat = append(out.Hat, item)
		case SlotGlasses:
			out.Glasses = append(out.Glasses, item)
		case SlotEffect:
			out.Effect = append(out.Effect, item)
		}
	}
	return out
}

// ApplyAccessory puts itemID on the fish's slot. An empty itemID clears it.
func (l *Ledger) ApplyAccessory(acct Account, fishID, slotName, itemID string) (Account, Fish, error) {
	slot, err := ParseSlot(slotName)
	if err != nil {
		return acct, Fish{}, err
	}
	if itemID != "" {
		if !acct.Owns(itemID) {
			return acct, Fish{}, errorf(ErrNotOwned, "%s", itemID)
		}
		item, ok := l.econ.Item(itemID)
		if !ok {
			return acct, Fish{}, errorf(ErrNotFound, "item %s", itemID)
		}
		if item.Category != slot {
			return acct, Fish{}, errorf(ErrCategoryMismatch, "%s is a %s, not a %s", item.Name, item.Category, slot)
		}
	}
	fish, ok := acct.Fish.Get(fishID)
	if !ok {
		return acct, Fish{}, errorf(ErrNotFound, "fish %s", fishID)
	}
	next := acct.Clone()
	fish.Accessories.Set(slot, itemID)
	if err := next.Fish.Put(fish); err != nil {
		return acct, Fish{}, err
	}
	return next, fish, nil
}
