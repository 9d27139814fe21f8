package main

import (
	"os"

	"github.com/google/uuid"

	"github.com/latticeforge/swarm/internal/replay"
	"github.com/latticeforge/swarm/internal/session"
	"github.com/latticeforge/swarm/internal/swarmerr"
)

// Run implements kong.Run for ReplayCmd.
func (c *ReplayCmd) Run() error {
	r := replay.New(os.Stdout, c.Verbose)
	interactive := !c.NoPager && isTerminal(os.Stdout)

	if c.Follow {
		return r.ReplayFileLive(c.Target)
	}

	if c.Index != "" {
		store, err := session.Open(c.Index)
		if err != nil {
			return swarmerr.Wrap(swarmerr.KindResource, c.Index, "opening session index", err)
		}
		defer store.Close()

		id, err := uuid.Parse(c.Target)
		if err != nil {
			return swarmerr.Wrap(swarmerr.KindInput, c.Target, "parsing run id", err)
		}
		if interactive {
			tl, err := replay.LoadRun(store, id)
			if err != nil {
				return err
			}
			return r.ReplayInteractive(tl)
		}
		return r.ReplayRun(store, id)
	}

	if interactive {
		tl, err := replay.LoadFile(c.Target)
		if err != nil {
			return err
		}
		return r.ReplayInteractive(tl)
	}
	return r.ReplayFile(c.Target)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
