package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/annabel-goldman/aquarium/internal/game"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

var rarityColors = map[game.Rarity]*color.Color{
	game.RarityCommon:    color.New(color.FgWhite),
	game.RarityUncommon:  color.New(color.FgGreen),
	game.RarityRare:      color.New(color.FgBlue, color.Bold),
	game.RarityLegendary: color.New(color.FgMagenta, color.Bold),
}

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

// promptPassword reads without echo when stdin is a terminal.
func promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptRequired(label)
	}
	for {
		fmt.Printf("%s: ", label)
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		if err := game.ValidatePassword(string(raw)); err != nil {
			printWarn("Password must be 8-72 characters.")
			continue
		}
		return string(raw), nil
	}
}

func rarity(r game.Rarity) string {
	c, ok := rarityColors[r]
	if !ok {
		return string(r)
	}
	return c.Sprint(r)
}

func meter(v float64) string {
	text := fmt.Sprintf("%.0f%%", v)
	switch {
	case v >= 70:
		return success.Sprint(text)
	case v >= 30:
		return warn.Sprint(text)
	default:
		return danger.Sprint(text)
	}
}

func renderState(username string, s game.GameStateView) {
	accent.Printf("\n== %s's tank ==\n", username)
	fmt.Printf("Coins:       %d\n", s.Coins)
	fmt.Printf("Hunger:      %s\n", meter(s.Tank.Hunger))
	fmt.Printf("Cleanliness: %s (%d poop)\n", meter(s.Tank.Cleanliness), len(s.Tank.Poop))
	fmt.Printf("Happiness:   %s\n", meter(s.Happiness))
	fmt.Printf("Fish:        %d/%d\n", len(s.Fish), s.MaxFish)
	if len(s.Fish) > 0 {
		fmt.Printf("\n%-38s %-20s %-10s %-4s %-10s %s\n", "ID", "NAME", "SPECIES", "SIZE", "RARITY", "WEARING")
		for _, f := range s.Fish {
			fmt.Printf("%-38s %-20s %-10s %-4s %-10s %s\n",
				f.ID, truncate(f.Name, 20), f.Species, f.Size, rarity(f.Rarity), wearing(f.Accessories))
		}
	}
	fmt.Println()
}

func wearing(a game.Accessories) string {
	var parts []string
	for _, v := range []string{a.Hat, a.Glasses, a.Effect} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func renderTick(t game.TickResult) {
	fmt.Printf("Hunger %s  Cleanliness %s  Happiness %s\n", meter(t.Hunger), meter(t.Cleanliness), meter(t.Happiness))
	if t.PoopAdded > 0 {
		printWarn(fmt.Sprintf("Your fish made %d new mess(es). Run `tank clean`.", t.PoopAdded))
	}
}

func renderSpawns(spawns []game.Spawn) {
	accent.Println("\n== The lake ==")
	if len(spawns) == 0 {
		printInfo("Nothing is biting.")
		return
	}
	fmt.Printf("%-38s %-10s %-4s %-10s %s\n", "SPAWN", "SPECIES", "SIZE", "RARITY", "SWIM")
	for _, s := range spawns {
		fmt.Printf("%-38s %-10s %-4s %-10s %.1fs\n", s.ID, s.Species, s.Size, rarity(s.Rarity), s.Speed)
	}
	fmt.Println()
}

func renderCatch(out game.CatchResult) {
	switch out.ResultType {
	case game.OutcomeFish:
		success.Println(out.Message)
		fmt.Printf("  %s the %s (%s, %s) worth %d coins\n",
			out.Fish.Name, out.Fish.Species, out.Fish.Size, rarity(out.Fish.Rarity), out.CoinValue)
		if out.TankFull {
			printWarn(fmt.Sprintf("Tank full (%d/%d): `tank swap <fish-id>` or `tank release`.", out.CurrentFishCount, out.MaxFish))
			return
		}
		printInfo("Run `tank keep` or `tank release`.")
	case game.OutcomeCosmetic, game.OutcomeBonusCoins:
		accent.Println(out.Message)
	default:
		neutral.Println(out.Message)
	}
}

func renderShop(out game.ShopItemsResult) {
	accent.Printf("\n== Shop (you have %d coins) ==\n", out.Coins)
	fmt.Printf("%-16s %-18s %-8s %7s  %s\n", "ID", "NAME", "SLOT", "PRICE", "")
	for _, item := range out.Items {
		status := ""
		switch {
		case item.Owned:
			status = success.Sprint("owned")
		case item.CatchOnly:
			status = warn.Sprint("catch only")
		case !item.CanBuy:
			status = danger.Sprint("too pricey")
		}
		fmt.Printf("%-16s %-18s %-8s %7d  %s\n", item.ID, truncate(item.Name, 18), item.Category, item.Price, status)
	}
	fmt.Println()
}

func renderCloset(out game.OwnedCosmetics) {
	accent.Println("\n== Closet ==")
	groups := []struct {
		name  string
		items []game.CosmeticItem
	}{
		{"Hats", out.Hat},
		{"Glasses", out.Glasses},
		{"Effects", out.Effect},
	}
	for _, g := range groups {
		fmt.Printf("%s:\n", g.name)
		if len(g.items) == 0 {
			fmt.Println("  (none)")
			continue
		}
		for _, item := range g.items {
			fmt.Printf("  %-16s %s\n", item.ID, item.Name)
		}
	}
	fmt.Println()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
