package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	cl "github.com/annabel-goldman/aquarium/internal/cli"
	"github.com/annabel-goldman/aquarium/internal/config"
	"github.com/annabel-goldman/aquarium/internal/game"
	"github.com/annabel-goldman/aquarium/internal/pending"

	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "tank",
		Short:        "Aquarium CLI game client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL (env TANK_API_BASE_URL)")

	root.AddCommand(
		newLoginCmd(&apiBase),
		newLogoutCmd(),
		newWhoamiCmd(&apiBase),
		newStateCmd(&apiBase),
		newTickCmd(&apiBase),
		newFeedCmd(&apiBase),
		newCleanCmd(&apiBase),
		newFishCmd(&apiBase),
		newLakeCmd(&apiBase),
		newCastCmd(&apiBase),
		newKeepCmd(&apiBase),
		newReleaseCmd(&apiBase),
		newSwapCmd(&apiBase),
		newShopCmd(&apiBase),
		newBuyCmd(&apiBase),
		newClosetCmd(&apiBase),
		newCoinsCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

// authed loads the saved session and runs fn with a request-scoped context.
func authed(cmd *cobra.Command, apiBase *string, fn func(ctx context.Context, c *cl.Client, sess cl.Session) error) error {
	sess, err := cl.LoadSession()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	err = fn(ctx, newClient(apiBase), sess)
	if cl.IsStatus(err, http.StatusUnauthorized) {
		return fmt.Errorf("session expired, run `tank login`: %w", err)
	}
	return err
}

func newLoginCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in, creating the account on first use",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var username string
			var err error
			if len(args) > 0 {
				username = args[0]
			} else if username, err = promptRequired("Username"); err != nil {
				return err
			}
			username = strings.ToLower(strings.TrimSpace(username))
			if err := game.ValidateUsername(username); err != nil {
				return fmt.Errorf("%w (3-20 letters, digits or _)", err)
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Login(ctx, username, password)
			if err != nil {
				return err
			}
			if err := cl.SaveSession(cl.NewSession(out.Username, out.Token, time.Duration(out.ExpiresIn)*time.Second, time.Now())); err != nil {
				return err
			}
			if out.IsNewUser {
				printSuccess(fmt.Sprintf("Welcome, %s! Your tank is ready.", out.Username))
				return nil
			}
			printSuccess(fmt.Sprintf("Welcome back, %s.", out.Username))
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearSession(); err != nil {
				return err
			}
			if err := pending.Clear(); err != nil {
				return err
			}
			printSuccess("Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session) error {
				name, err := c.Me(ctx, sess.Token)
				if err != nil {
					return err
				}
				printInfo(name)
				return nil
			})
		},
	}
}

func newStateCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show your tank",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session) error {
				out, err := c.State(ctx, sess.Token)
				if err != nil {
					return err
				}
				renderState(sess.Username, out)
				return nil
			})
		},
	}
}

func newTickCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Bring the tank up to date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session) error {
				out, err := c.Tick(ctx, sess.Token)
				if err != nil {
					return err
				}
				renderTick(out)
				return nil
			})
		},
	}
}

func newFeedCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Feed your fish",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session) error {
				out, err := c.Feed(ctx, sess.Token)
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("Fed! Hunger %s, coins %d.", meter(out.NewHunger), out.NewCoins))
				return nil
			})
		},
	}
}

func newCleanCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [poop-id]",
		Short: "Scoop all poop, or a single marker",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session) error {
				var out game.CleanResult
				var err error
				if len(args) > 0 {
					out, err = c.RemovePoop(ctx, sess.Token, args[0])
				} else {
					out, err = c.Clean(ctx, sess.Token)
				}
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("Removed %d. Cleanliness %s.", out.PoopRemoved, meter(out.NewCleanliness)))
				return nil
			})
		},
	}
}

func newFishCmd(apiBase *string) *cobra.Command {
	fish := &cobra.Command{
		Use:   "fish",
		Short: "Manage the fish in your tank",
	}

	var color, size string
	add := &cobra.Command{
		Use:   "add <species> <name>",
		Short: "Add a fish by hand",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := game.NewFish{Species: args[0], Name: args[1], Color: color, Size: game.Size(size)}
			if err := in.Validate(); err != nil {
				return err
			}
			return authed(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session) error {
				out, err := c.AddFish(ctx, sess.Token, in)
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("%s joined your tank (%s).", out.Fish.Name, out.Fish.ID))
				return nil
			})
		},
	}
	add.Flags().StringVar(&color, "color", "#ff8844", "colour as #RRGGBB")
	add.Flags().StringVar(&size, "size", string(game.SizeMedium), "sm, md or lg")

	release := &cobra.Command{
		Use:   "release <fish-id>",
		Short: "Let a fish go (no coins)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session) error {
				if _, err := c.ReleaseFish(ctx, sess.Token, args[0]); err != nil {
					return err
				}
				printSuccess("Released.")
				return nil
			})
		},
	}

	dress := &cobra.Command{
		Use:   "dress <fish-id> <hat|glasses|effect> [item-id]",
		Short: "Put an owned accessory on a fish, or clear the slot",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := game.ParseSlot(args[1])
			if err != nil {
				return err
			}
			item := ""
			if len(args) == 3 {
				item = args[2]
			}
			return authed(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session) error {
				out, err := c.ApplyAccessory(ctx, sess.Token, args[0], string(slot), item)
				if err != nil {
					return err
				}
				if item == "" {
					printSuccess(fmt.Sprintf("Cleared %s on %s.", slot, out.Fish.Name))
					return nil
				}
				printSuccess(fmt.Sprintf("%s is wearing %s.", out.Fish.Name, item))
				return nil
			})
		},
	}

	fish.AddCommand(add, release, dress)
	return fish
}

func newLakeCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "lake",
		Short: "Look at the fish swimming in the lake",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session) error {
				spawns, err := c.Spawns(ctx, sess.Token)
				if err != nil {
					return err
				}
				renderSpawns(spawns)
				return nil
			})
		},
	}
}

func newCastCmd(apiBase *string) *cobra.Command {
	var species, size, rarity string
	cmd := &cobra.Command{
		Use:   "cast [spawn-id]",
		Short: "Cast a line; without a spawn id the first fish in the lake is targeted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session) error {
				if held, err := pending.Load(sess.Username); err == nil {
					printWarn(fmt.Sprintf("Replacing the %s still on your line.", held.Fish.Species))
				}
				hints := game.CatchHints{Species: species, Size: game.Size(size), Rarity: game.Rarity(rarity)}
				spawnID := ""
				if len(args) > 0 {
					spawnID = args[0]
				} else {
					spawns, err := c.Spawns(ctx, sess.Token)
					if err != nil {
						return err
					}
					if len(spawns) == 0 {
						return errors.New("the lake is empty")
					}
					target := spawns[0]
					spawnID = target.ID
					hints = game.CatchHints{Species: target.Species, Size: target.Size, Rarity: target.Rarity}
				}
				out, err := c.Catch(ctx, sess.Token, spawnID, hints)
				if err != nil {
					return err
				}
				if out.ResultType == game.OutcomeFish && out.Fish != nil {
					if err := pending.Save(pending.Catch{
						Username: sess.Username,
						Ticket:   out.Ticket,
						Fish:     *out.Fish,
						CaughtAt: time.Now().UTC(),
					}); err != nil {
						return err
					}
				}
				renderCatch(out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&species, "species", "", "species of the targeted silhouette")
	cmd.Flags().StringVar(&size, "size", "", "size of the targeted silhouette")
	cmd.Flags().StringVar(&rarity, "rarity", "", "rarity of the targeted silhouette")
	return cmd
}

// settle runs fn against the held catch and drops it once the server has
// accepted or rejected the ticket.
func settle(cmd *cobra.Command, apiBase *string, fn func(ctx context.Context, c *cl.Client, sess cl.Session, held pending.Catch) error) error {
	return authed(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session) error {
		held, err := pending.Load(sess.Username)
		if err != nil {
			return err
		}
		err = fn(ctx, c, sess, held)
		if err == nil || spentTicket(err) {
			if clearErr := pending.Clear(); clearErr != nil {
				return clearErr
			}
		}
		return err
	})
}

// spentTicket reports errors after which the held ticket can never succeed.
func spentTicket(err error) bool {
	return cl.HasCode(err, game.CodeInvalidTicket, game.CodeCatchSettled, game.CodeDuplicateFish)
}

func newKeepCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "keep",
		Short: "Put the fish on your line into the tank",
		RunE: func(cmd *cobra.Command, args []string) error {
			return settle(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session, held pending.Catch) error {
				out, err := c.Keep(ctx, sess.Token, held.Ticket)
				if cl.HasCode(err, game.CodeTankFull) {
					printWarn("Your tank is full. Use `tank swap <fish-id>` or `tank release`.")
				}
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("%s (%d/%d)", out.Message, out.FishCount, out.MaxFish))
				return nil
			})
		},
	}
}

func newReleaseCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "release",
		Short: "Throw the fish on your line back for coins",
		RunE: func(cmd *cobra.Command, args []string) error {
			return settle(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session, held pending.Catch) error {
				out, err := c.Release(ctx, sess.Token, held.Ticket)
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("%s Coins: %d", out.Message, out.NewCoins))
				return nil
			})
		},
	}
}

func newSwapCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "swap <fish-id>",
		Short: "Release a tank fish for coins and keep the one on your line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return settle(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session, held pending.Catch) error {
				out, err := c.Swap(ctx, sess.Token, held.Ticket, args[0])
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("%s Coins: %d", out.Message, out.NewCoins))
				return nil
			})
		},
	}
}

func newShopCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "shop",
		Short: "Browse cosmetics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session) error {
				out, err := c.ShopItems(ctx, sess.Token)
				if err != nil {
					return err
				}
				renderShop(out)
				return nil
			})
		},
	}
}

func newBuyCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "buy <item-id>",
		Short: "Buy a cosmetic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session) error {
				out, err := c.Buy(ctx, sess.Token, args[0])
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("%s Coins left: %d", out.Message, out.NewCoins))
				return nil
			})
		},
	}
}

func newClosetCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "closet",
		Short: "List the cosmetics you own",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session) error {
				out, err := c.Owned(ctx, sess.Token)
				if err != nil {
					return err
				}
				renderCloset(out)
				return nil
			})
		},
	}
}

func newCoinsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:    "coins <amount>",
		Short:  "Grant yourself coins",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return authed(cmd, apiBase, func(ctx context.Context, c *cl.Client, sess cl.Session) error {
				out, err := c.AddCoins(ctx, sess.Token, amount)
				if err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("+%d coins, total %d.", out.CoinsAdded, out.NewTotal))
				return nil
			})
		},
	}
}

func parseAmount(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}
