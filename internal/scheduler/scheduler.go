package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/kubev2v/vcenter-collector/internal/arena"
	"github.com/kubev2v/vcenter-collector/internal/config"
	"github.com/kubev2v/vcenter-collector/internal/model"
)

// InventoryRunner, PerfRunner and EventRunner are the three cycle kinds
// the scheduler dispatches. internal/collector implements all three;
// declaring the interfaces here (rather than importing collector) keeps
// this package free of a dependency on the SOAP-talking code it drives.
type InventoryRunner interface {
	RunInventory(ctx context.Context, svc *model.Service, ar *arena.Arena) error
}

type PerfRunner interface {
	RunPerf(ctx context.Context, svc *model.Service, ar *arena.Arena) error
}

type EventRunner interface {
	RunEvents(ctx context.Context, svc *model.Service) error
}

type taskKind int

const (
	taskNone taskKind = iota
	taskRemove
	taskUpdatePerf
	taskUpdate
)

// Scheduler is the single cooperative loop described in doc.go: one
// goroutine selects at most one task per registered Service under its
// own lock, releases it, runs exactly one task outside the lock, then
// sleeps until the earliest next-wake time it computed. It replaces
// this package's ancestor's fixed N-worker pool — there is no queue of
// arbitrary caller-submitted work here, only the three fixed cycle kinds
// a VMware Service can be in.
type Scheduler struct {
	arena *arena.Arena
	cfg   config.Scheduler

	inventory InventoryRunner
	perf      PerfRunner
	events    EventRunner

	mu       sync.Mutex
	services map[string]*model.Service
	backoffs map[string]*backoff.ExponentialBackOff
	nextTry  map[string]time.Time

	log *zap.SugaredLogger

	closeCh   chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

func New(a *arena.Arena, cfg config.Scheduler, inv InventoryRunner, perf PerfRunner, events EventRunner) *Scheduler {
	return &Scheduler{
		arena:     a,
		cfg:       cfg,
		inventory: inv,
		perf:      perf,
		events:    events,
		services:  map[string]*model.Service{},
		backoffs:  map[string]*backoff.ExponentialBackOff{},
		nextTry:   map[string]time.Time{},
		log:       zap.S().Named("scheduler"),
		closeCh:   make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Register adds svc to the set the loop drives. Called by the read API
// when a new Service stub is created.
func (s *Scheduler) Register(svc *model.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = svc
}

func (s *Scheduler) serviceBackoff(id string) *backoff.ExponentialBackOff {
	b, ok := s.backoffs[id]
	if !ok {
		b = &backoff.ExponentialBackOff{
			InitialInterval:     s.cfg.BackoffInitial,
			RandomizationFactor: 0.1,
			Multiplier:          2,
			MaxInterval:         s.cfg.BackoffMax,
		}
		b.Reset()
		s.backoffs[id] = b
	}
	return b
}

// Run drives the loop until ctx is cancelled. Meant to be started on its
// own goroutine by cmd/vcenter-collectord.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.doneCh)
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("scheduler stopping, shutdown signal received")
			return
		case <-s.closeCh:
			return
		default:
		}

		sleep := s.tick(ctx)

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Infow("scheduler stopping, shutdown signal received")
			return
		case <-s.closeCh:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Close stops the loop: a sleep in progress is cut short at once, while
// a task in flight is never interrupted (a running cycle always runs to
// completion or first SOAP error) and Close waits for it to finish.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		close(s.closeCh)
		<-s.doneCh
	})
}

// tick runs exactly one scheduling decision and returns how long to
// sleep before the next one.
func (s *Scheduler) tick(ctx context.Context) time.Duration {
	now := time.Now()

	s.mu.Lock()
	var chosenSvc *model.Service
	var chosenKind taskKind
	nextWake := now.Add(s.cfg.InventoryPeriod)

	// Priority pass: remove > update_perf > update, evaluated across all
	// services before falling through to the next priority, since only
	// one task executes per wake.
priorityLoop:
	for _, kind := range []taskKind{taskRemove, taskUpdatePerf, taskUpdate} {
		for id, svc := range s.services {
			if s.retryDelayed(id, now) {
				continue
			}
			k, wake := s.selectTask(svc, now)
			if !wake.IsZero() && wake.Before(nextWake) {
				nextWake = wake
			}
			if k == kind {
				chosenSvc, chosenKind = svc, k
				break priorityLoop
			}
		}
	}
	if chosenKind == taskRemove {
		delete(s.services, chosenSvc.ID)
		delete(s.backoffs, chosenSvc.ID)
		delete(s.nextTry, chosenSvc.ID)
		s.arena.DropService(chosenSvc.ID)
	}
	s.mu.Unlock()

	if chosenSvc == nil || chosenKind == taskRemove {
		if chosenSvc != nil {
			s.log.Infow("removed idle service", "service", chosenSvc.ID)
		}
		return sleepFor(now, nextWake)
	}

	s.runTask(ctx, chosenSvc, chosenKind)
	return sleepFor(time.Now(), nextWake)
}

func sleepFor(now, wake time.Time) time.Duration {
	d := wake.Sub(now)
	if d <= 0 {
		return time.Millisecond
	}
	const maxPoll = time.Second
	if d > maxPoll {
		return maxPoll
	}
	return d
}

// retryDelayed reports whether a service that failed its last cycle is
// still within its backoff window. Must be called with s.mu held.
func (s *Scheduler) retryDelayed(id string, now time.Time) bool {
	until, ok := s.nextTry[id]
	return ok && now.Before(until)
}

// selectTask implements the per-service priority: remove, then
// update_perf, then update, else report this service's next wake.
// Must be called with s.mu held.
func (s *Scheduler) selectTask(svc *model.Service, now time.Time) (taskKind, time.Time) {
	if svc.IdleFor(now) > s.cfg.ServiceTTL && !svc.HasState(model.StateUpdating) && !svc.HasState(model.StateUpdatingPerf) {
		return taskRemove, time.Time{}
	}

	if svc.HasState(model.StateReady) && !svc.HasState(model.StateUpdatingPerf) {
		lastPerf := time.Unix(svc.LastPerf.Load(), 0)
		if now.Sub(lastPerf) >= s.cfg.PerfPeriod {
			return taskUpdatePerf, time.Time{}
		}
	}

	if !svc.HasState(model.StateUpdating) {
		lastInv := time.Unix(svc.LastInventory.Load(), 0)
		if now.Sub(lastInv) >= s.cfg.InventoryPeriod {
			return taskUpdate, time.Time{}
		}
		return taskNone, lastInv.Add(s.cfg.InventoryPeriod)
	}

	return taskNone, now.Add(s.cfg.InventoryPeriod)
}

// runTask executes exactly one cycle for svc, outside the arena lock,
// serialised against that Service's other cycle kind by the state flag
// set/cleared around the call.
func (s *Scheduler) runTask(ctx context.Context, svc *model.Service, kind taskKind) {
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	var err error
	switch kind {
	case taskUpdate:
		svc.SetState(model.StateUpdating)
		defer svc.ClearState(model.StateUpdating)

		err = s.inventory.RunInventory(reqCtx, svc, s.arena)
		if err == nil {
			if eerr := s.events.RunEvents(reqCtx, svc); eerr != nil {
				s.log.Warnw("event tail failed, inventory cycle still counts as successful", "service", svc.ID, "error", eerr)
			}
			svc.LastInventory.Store(time.Now().Unix())
		}
	case taskUpdatePerf:
		svc.SetState(model.StateUpdatingPerf)
		defer svc.ClearState(model.StateUpdatingPerf)

		started := time.Now()
		err = s.perf.RunPerf(reqCtx, svc, s.arena)
		if err == nil {
			svc.LastPerf.Store(started.Unix())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		svc.SetState(model.StateFailed)
		b := s.serviceBackoff(svc.ID)
		delay, berr := b.NextBackOff()
		if berr != nil {
			delay = s.cfg.BackoffMax
		}
		s.nextTry[svc.ID] = time.Now().Add(delay)
		svc.ConsecutiveFailures.Add(1)
		s.log.Errorw("cycle failed, backing off", "service", svc.ID, "error", err, "retry_in", delay)
		return
	}

	svc.ClearState(model.StateFailed)
	svc.SetState(model.StateReady)
	svc.ConsecutiveFailures.Store(0)
	delete(s.nextTry, svc.ID)
	if b, ok := s.backoffs[svc.ID]; ok {
		b.Reset()
	}
}
