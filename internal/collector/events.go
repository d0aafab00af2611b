package collector

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/vmware/govmomi/event"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/kubev2v/vcenter-collector/internal/arena"
	"github.com/kubev2v/vcenter-collector/internal/model"
	"github.com/kubev2v/vcenter-collector/internal/propiter"
	"github.com/kubev2v/vcenter-collector/internal/vsoap"
	srverrors "github.com/kubev2v/vcenter-collector/pkg/errors"
)

// eventBatchInitial/eventBatchCeiling are spec.md §4.7 step 3's doubling
// page-size schedule: 10, 20, 40, ... capped at 1000.
const (
	eventBatchInitial = 10
	eventBatchCeiling = 1000
)

// EventFetcher implements the event tailer (C7). The scheduler runs it
// inside the inventory task, right after a successful inventory cycle; it
// still opens its own short-lived session (see dialAndLogin in session.go)
// rather than threading the inventory fetcher's connection through, since
// RunInventory logs out before it returns.
type EventFetcher struct {
	Insecure bool
	BindAddr string

	arena *arena.Arena
	log   *zap.SugaredLogger
}

func NewEventFetcher(a *arena.Arena, insecure bool, bindAddr string) *EventFetcher {
	return &EventFetcher{
		Insecure: insecure,
		BindAddr: bindAddr,
		arena:    a,
		log:      zap.S().Named("events"),
	}
}

// RunEvents satisfies internal/scheduler.EventRunner.
func (f *EventFetcher) RunEvents(ctx context.Context, svc *model.Service) error {
	current := f.arena.Snapshot(svc.ID)
	if current == nil {
		// Nothing promoted yet; nothing to attach an event list to.
		return nil
	}

	client, err := dialAndLogin(ctx, svc, f.Insecure, f.BindAddr, f.log)
	if err != nil {
		return err
	}
	defer client.Logout(ctx)

	log := f.log.With("service", svc.ID)

	events := current.Events
	if svc.Events.SkipOld {
		// Seed last_key from the single latest event, and fold that one
		// event into the list rather than discarding it (spec.md §8
		// scenario 3); never page the rest of the history.
		events, err = f.seedLatestEvent(ctx, client, svc, log)
	} else {
		events, err = f.tailEvents(ctx, client, svc, log)
	}
	if err != nil {
		return err
	}
	svc.Events.Uninit = false

	working := &model.Snapshot{
		Hypervisors:      current.Hypervisors,
		Datastores:       current.Datastores,
		DatastoresByName: current.DatastoresByName,
		Clusters:         current.Clusters,
		MaxQueryMetrics:  current.MaxQueryMetrics,
		Error:            current.Error,
		Events:           events,
	}
	f.arena.PromoteSnapshot(svc.ID, working)
	return nil
}

// seedLatestEvent implements spec.md §4.7's skip_old path: fetch only the
// EventManager's "latestEvent" property, seed last_key from it, and return
// it as the sole entry of the event list rather than paging the rest of
// the history.
func (f *EventFetcher) seedLatestEvent(ctx context.Context, client *vsoap.Client, svc *model.Service, log *zap.SugaredLogger) ([]*model.Event, error) {
	svc.Events.SkipOld = false

	ref := client.Vim.ServiceContent.EventManager
	if ref == nil {
		return nil, nil
	}

	spec := types.PropertyFilterSpec{
		PropSet:   []types.PropertySpec{{Type: "EventManager", PathSet: []string{"latestEvent"}}},
		ObjectSet: []types.ObjectSpec{{Obj: *ref}},
	}
	objs, err := propiter.CollectAll(ctx, client.Vim, []types.PropertyFilterSpec{spec})
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, nil
	}
	v, ok := propiter.PropValue(objs[0], "latestEvent")
	if !ok {
		return nil, nil
	}
	be, ok := v.(types.BaseEvent)
	if !ok {
		log.Debugw("latestEvent property had unexpected type", "value", v)
		return nil, nil
	}
	ev := be.GetEvent()
	if ev == nil {
		return nil, nil
	}

	key := int64(ev.Key)
	svc.Events.LastKey = key

	msg := strings.ToValidUTF8(ev.FullFormattedMessage, "�")
	if msg == "" {
		return nil, nil
	}
	ts := int64(0)
	if !ev.CreatedTime.IsZero() {
		ts = ev.CreatedTime.UTC().Unix()
	}
	return []*model.Event{{Key: key, Timestamp: ts, Message: msg}}, nil
}

// tailEvents implements spec.md §4.7's full paging path and returns the
// complete newest-first event list to attach to the promoted snapshot.
func (f *EventFetcher) tailEvents(ctx context.Context, client *vsoap.Client, svc *model.Service, log *zap.SugaredLogger) ([]*model.Event, error) {
	mgr := event.NewManager(client.Vim)
	collector, err := mgr.CreateCollectorForEvents(ctx, types.EventFilterSpec{})
	if err != nil {
		return nil, srverrors.NewTransportError(svc.URL, err)
	}
	defer func() {
		if derr := collector.Destroy(ctx); derr != nil {
			log.Warnw("destroy event collector failed", "error", derr)
		}
	}()

	if err := collector.ResetCollector(ctx); err != nil {
		return nil, srverrors.NewTransportError(svc.URL, err)
	}

	lastKey := svc.Events.LastKey
	maxKeySeen := lastKey
	batch := int32(eventBatchInitial)
	var collected []*model.Event

	for {
		page, err := collector.ReadPreviousEvents(ctx, batch)
		if err != nil {
			return nil, srverrors.NewTransportError(svc.URL, err)
		}
		if len(page) == 0 {
			break
		}

		newInPage := 0
		for _, be := range page {
			ev := be.GetEvent()
			if ev == nil {
				continue
			}
			key := int64(ev.Key)
			if key <= lastKey {
				continue
			}
			msg := strings.ToValidUTF8(ev.FullFormattedMessage, "�")
			if msg == "" {
				continue
			}
			ts := int64(0)
			if !ev.CreatedTime.IsZero() {
				ts = ev.CreatedTime.UTC().Unix()
			}
			collected = append(collected, &model.Event{Key: key, Timestamp: ts, Message: msg})
			newInPage++
			if key > maxKeySeen {
				maxKeySeen = key
			}
		}

		if newInPage == 0 {
			break
		}

		if batch < eventBatchCeiling {
			batch *= 2
			if batch > eventBatchCeiling {
				batch = eventBatchCeiling
			}
		}
	}

	sortEventsNewestFirst(collected)
	svc.Events.LastKey = maxKeySeen
	return collected, nil
}

func sortEventsNewestFirst(events []*model.Event) {
	// insertion sort: event counts per cycle are small (hundreds, not
	// millions), and the input is already nearly sorted descending.
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && events[j-1].Key < events[j].Key; j-- {
			events[j-1], events[j] = events[j], events[j-1]
		}
	}
}
