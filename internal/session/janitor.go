package session

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Janitor periodically sweeps expired sessions out of the store. Resolve
// already drops expired sessions lazily; the sweep keeps abandoned sessions
// from accumulating in memory.
type Janitor struct {
	store Store
	cron  *cron.Cron
}

// NewJanitor creates a janitor sweeping the store on the given cron spec,
// e.g. "@every 5m".
func NewJanitor(store Store, spec string) (*Janitor, error) {
	j := &Janitor{
		store: store,
		cron:  cron.New(),
	}
	if _, err := j.cron.AddFunc(spec, j.sweep); err != nil {
		return nil, err
	}
	return j, nil
}

// Run starts the sweep schedule.
func (j *Janitor) Run() {
	log.Info().Msg("Starting session janitor")
	j.cron.Start()
}

// Stop halts the sweep schedule, waiting for a running sweep to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("Stopped session janitor")
}

func (j *Janitor) sweep() {
	removed, err := j.store.DeleteExpired(context.Background(), time.Now())
	if err != nil {
		log.Error().Err(err).Msg("Session sweep failed")
		return
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Swept expired sessions")
	}
}
