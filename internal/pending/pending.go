// Package pending keeps the one provisional catch the CLI is holding between
// a cast and the keep, release or swap that settles it.
package pending

import (
	"errors"
	"io/fs"
	"time"

	"github.com/annabel-goldman/aquarium/internal/cli"
	"github.com/annabel-goldman/aquarium/internal/game"
)

const file = "pending.json"

var ErrNone = errors.New("no fish on the line; cast first")

type Catch struct {
	Username string    `json:"username"`
	Ticket   string    `json:"ticket"`
	Fish     game.Fish `json:"fish"`
	CaughtAt time.Time `json:"caughtAt"`
}

// Load returns the held catch for username, or ErrNone.
func Load(username string) (Catch, error) {
	var out Catch
	err := cli.ReadState(file, &out)
	if errors.Is(err, fs.ErrNotExist) {
		return Catch{}, ErrNone
	}
	if err != nil {
		return Catch{}, err
	}
	if out.Ticket == "" || out.Username != username {
		return Catch{}, ErrNone
	}
	return out, nil
}

// Save replaces any previously held catch.
func Save(c Catch) error {
	return cli.WriteState(file, c)
}

func Clear() error {
	return cli.RemoveState(file)
}
