// Package jobs runs the periodic settlement work: releasing pouches whose
// hold has ended and expiring bookings stylists never answered.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Settler is the part of the booking service the jobs drive
type Settler interface {
	ReleaseDue(ctx context.Context) (int, error)
	ExpirePending(ctx context.Context) (int, error)
}

// Scheduler wraps a cron runner with the settlement jobs registered
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers the jobs with their cron specs
func NewScheduler(settler Settler, releaseSpec, expirySpec string) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(releaseSpec, run("pouch_release", settler.ReleaseDue)); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(expirySpec, run("pending_expiry", settler.ExpirePending)); err != nil {
		return nil, err
	}
	return &Scheduler{cron: c}, nil
}

// Start runs the jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	logrus.WithField("jobs", len(s.cron.Entries())).Info("Scheduler started")
}

// Stop waits for running jobs to finish, up to ctx
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	logrus.Info("Scheduler stopped")
}

// Entries reports how many jobs are registered
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func run(name string, fn func(context.Context) (int, error)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := fn(ctx)
		if err != nil {
			logrus.WithFields(logrus.Fields{"job": name, "error": err.Error()}).Error("Job failed")
			return
		}
		if n > 0 {
			logrus.WithFields(logrus.Fields{"job": name, "processed": n}).Info("Job finished")
		}
	}
}
