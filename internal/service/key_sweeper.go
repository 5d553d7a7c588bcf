package service

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/haatos/gitbridge/internal"
	"github.com/haatos/gitbridge/internal/util"
	"github.com/rs/zerolog"
)

// KeySweeper removes key directories written for pipeline runs once the
// retention window has passed.
type KeySweeper struct {
	root      string
	retention time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

func NewKeySweeper(root string, retention time.Duration, logger zerolog.Logger) *KeySweeper {
	return &KeySweeper{
		root:      root,
		retention: retention,
		now:       time.Now,
		logger:    logger.With().Str("component", "key_sweeper").Logger(),
	}
}

func (ks *KeySweeper) Sweep() ([]string, error) {
	removed, err := util.RemoveDirsOlderThan(ks.root, internal.KeysDirPattern, ks.now().Add(-ks.retention))
	if len(removed) > 0 {
		ks.logger.Info().Int("count", len(removed)).Msg("removed expired key directories")
	}
	return removed, err
}

func (ks *KeySweeper) Schedule(s gocron.Scheduler, interval time.Duration) error {
	_, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := ks.Sweep(); err != nil {
				ks.logger.Error().Err(err).Msg("err sweeping key directories")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}
