package sched

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"gym-membership-platform/internal/domain/ports/repository"
	"gym-membership-platform/internal/usecase"
)

// TenantScheduler owns one cron runner per gym, each evaluated in the gym's
// own timezone, and runs the expiration sweep on the configured schedule.
// It is the process-lifetime replacement for a bare global list of job
// handles: registration and removal go through explicit methods.
type TenantScheduler struct {
	spec  string // cron spec, e.g. "0 2 * * *" for daily at 02:00 local
	gyms  repository.GymRepository
	subUC usecase.MembershipUseCase
	log   *zerolog.Logger

	mu   sync.Mutex
	jobs map[string]*cron.Cron // gymID -> runner
}

func NewTenantScheduler(spec string, gyms repository.GymRepository, subUC usecase.MembershipUseCase, logger *zerolog.Logger) *TenantScheduler {
	if spec == "" {
		spec = "0 2 * * *"
	}
	schedLog := logger.With().Str("component", "TenantScheduler").Logger()
	return &TenantScheduler{
		spec:  spec,
		gyms:  gyms,
		subUC: subUC,
		log:   &schedLog,
		jobs:  make(map[string]*cron.Cron),
	}
}

// RegisterTenant schedules the sweep for one gym. Re-registering an already
// scheduled gym replaces its runner (picking up a timezone change).
func (s *TenantScheduler) RegisterTenant(gymID string, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	runner := cron.New(cron.WithLocation(loc))
	id := gymID
	_, err := runner.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		n, err := s.subUC.SweepExpiredSubscriptions(ctx, id)
		if err != nil {
			s.log.Error().Err(err).Str("gym_id", id).Msg("expiration sweep failed")
			return
		}
		if n > 0 {
			s.log.Info().Str("gym_id", id).Int("count", n).Msg("expiration sweep done")
		}
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	if old, ok := s.jobs[gymID]; ok {
		old.Stop()
	}
	s.jobs[gymID] = runner
	s.mu.Unlock()

	runner.Start()
	s.log.Debug().Str("gym_id", gymID).Str("tz", loc.String()).Msg("tenant sweep scheduled")
	return nil
}

// UnregisterTenant stops and removes a gym's runner.
func (s *TenantScheduler) UnregisterTenant(gymID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if runner, ok := s.jobs[gymID]; ok {
		runner.Stop()
		delete(s.jobs, gymID)
	}
}

// Resync scans all known gyms and (re)schedules each. Called at process start
// and whenever a new tenant is provisioned.
func (s *TenantScheduler) Resync(ctx context.Context) error {
	gyms, err := s.gyms.ListAll(ctx, nil)
	if err != nil {
		return err
	}
	for _, g := range gyms {
		if err := s.RegisterTenant(g.ID, g.Location()); err != nil {
			s.log.Error().Err(err).Str("gym_id", g.ID).Msg("failed to schedule tenant sweep")
		}
	}
	s.log.Info().Int("tenants", len(gyms)).Msg("tenant sweep schedules synced")
	return nil
}

// Stop halts every runner. Used on shutdown.
func (s *TenantScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, runner := range s.jobs {
		runner.Stop()
		delete(s.jobs, id)
	}
}
