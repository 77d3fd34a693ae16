package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sentinelops/sentinel/internal/replay"
	"github.com/sentinelops/sentinel/internal/session"
)

// Run implements the replay command.
func (c *ReplayCmd) Run(app *appContext) error {
	store, err := session.NewStore(app.cfg.SessionDir())
	if err != nil {
		return err
	}

	if c.List {
		ids, err := store.List()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("no stored sessions")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	if c.Session == "" {
		return errors.New("session file or run id required (or --list)")
	}

	// Accept either a file path or a bare run id.
	path := c.Session
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = store.Path(c.Session)
	}

	r := replay.New(os.Stdout)
	if c.Follow {
		return r.ReplayFileLive(path)
	}
	if c.NoPager {
		return r.ReplayFile(path)
	}
	return r.ReplayFileInteractive(path)
}
