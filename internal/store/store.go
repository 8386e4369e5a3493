// Package store persists events as one iCalendar snapshot per event inside a
// git-managed archive directory. Writes are idempotent: an event whose
// content did not change since the last run is rewritten byte for byte, so
// the git history only moves when something actually happened.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/rs/zerolog"

	"fbscrape/internal/event"
	"fbscrape/internal/ics"
)

// Result classifies the outcome of one snapshot write.
type Result int

const (
	ResultNew Result = iota
	ResultChanged
	ResultUnchanged
)

func (r Result) String() string {
	switch r {
	case ResultNew:
		return "new"
	case ResultChanged:
		return "changed"
	case ResultUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Store is the snapshot archive. It is single-writer: one run owns the
// directory at a time.
type Store struct {
	dir     string
	log     zerolog.Logger
	session *Session
}

// Open prepares the archive directory and starts a new session for this run.
func Open(dir string, logger zerolog.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("archive directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, log: logger, session: newSession(dir, logger)}, nil
}

// Dir returns the archive directory path.
func (s *Store) Dir() string { return s.dir }

// Write persists ev as <uid>.ics, plus a <uid>.png sibling for the
// screenshot. The previous snapshot, if readable, decides the outcome: for
// unchanged content the previous DTSTAMP and attachment are carried over so
// the file bytes stay identical, and the screenshot is not rewritten. A
// missing or corrupt previous snapshot simply means the event is new.
func (s *Store) Write(ev *event.Event) (Result, error) {
	fresh := ics.NewVEvent(ev, time.Now().UTC(), true)

	result := ResultNew
	prior, err := s.read(ev.UID)
	switch {
	case err == nil:
		if unchanged(fresh, prior) {
			result = ResultUnchanged
			fresh = mergePrior(fresh, prior)
		} else {
			result = ResultChanged
		}
	case errors.Is(err, fs.ErrNotExist):
		s.log.Info().Str("uid", ev.UID).Msg("new event")
	default:
		s.log.Warn().Err(err).Str("uid", ev.UID).Msg("snapshot unreadable, writing anew")
	}

	cal := ics.NewCalendar()
	cal.AddVEvent(fresh)
	if err := atomicWrite(s.dir, ev.UID+".ics", []byte(ics.Serialize(cal))); err != nil {
		return result, fmt.Errorf("write snapshot %s: %w", ev.UID, err)
	}

	if result != ResultUnchanged && len(ev.Screenshot) > 0 {
		if err := atomicWrite(s.dir, ev.UID+".png", ev.Screenshot); err != nil {
			return result, fmt.Errorf("write screenshot %s: %w", ev.UID, err)
		}
	}

	switch result {
	case ResultUnchanged:
		s.log.Info().Str("uid", ev.UID).Msg("event unchanged, kept previous DTSTAMP")
	default:
		s.log.Info().Str("uid", ev.UID).Str("result", result.String()).Msg("wrote event")
	}

	s.session.add(ev)
	return result, nil
}

// Finalize closes this run's session: digest, stage, commit.
func (s *Store) Finalize(ctx context.Context) error {
	return s.session.Finalize(ctx)
}

func (s *Store) read(uid string) (*ical.VEvent, error) {
	f, err := os.Open(filepath.Join(s.dir, uid+".ics"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ics.ParseSnapshot(f)
}

// atomicWrite writes data to dir/name via a temp file in the same directory
// and a rename, so readers never observe a partial file.
func atomicWrite(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+name+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, filepath.Join(dir, name))
}
