package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"fbscrape/internal/digest"
	"fbscrape/internal/event"
)

// Session accumulates the events written during one run, in write order, and
// finalizes the archive exactly once.
type Session struct {
	dir string
	log zerolog.Logger

	events    []*event.Event
	finalized bool
}

func newSession(dir string, logger zerolog.Logger) *Session {
	return &Session{dir: dir, log: logger}
}

func (s *Session) add(ev *event.Event) {
	s.events = append(s.events, ev)
}

// Finalize renders the digest README and records the run in git. It runs at
// most once; later calls are no-ops. Staging failures surface as *StageError.
// A failed commit is tolerated: `git commit` exits nonzero when nothing is
// staged, which is the normal outcome of a run without changes.
func (s *Session) Finalize(ctx context.Context) error {
	if s.finalized {
		return nil
	}
	s.finalized = true

	readme := digest.Render(s.events, time.Now().UTC())
	if err := atomicWrite(s.dir, "README.md", readme); err != nil {
		return fmt.Errorf("write digest: %w", err)
	}

	if err := gitCommand(ctx, s.dir, "add", "-A").Run(); err != nil {
		return &StageError{Dir: s.dir, Err: err}
	}
	if err := gitCommand(ctx, s.dir, "commit", "-m", "update events").Run(); err != nil {
		s.log.Debug().Err(err).Msg("git commit recorded no new revision")
	} else {
		s.log.Info().Int("events", len(s.events)).Msg("archive committed")
	}
	return nil
}
