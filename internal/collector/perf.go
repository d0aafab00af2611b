package collector

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/methods"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/kubev2v/vcenter-collector/internal/arena"
	"github.com/kubev2v/vcenter-collector/internal/model"
	srverrors "github.com/kubev2v/vcenter-collector/pkg/errors"
)

// realtimeBatchCap is spec.md §4.9's "cap is ∞ (treated as 1000) for
// real-time entities".
const realtimeBatchCap = 1000

// defaultHistoricalBatchCap is used when a snapshot has not yet reported
// max_query_metrics (e.g. an ESXi host, or a cycle that ran before the
// first inventory fetch finished).
const defaultHistoricalBatchCap = 64

// moTypeByEntityKind maps a PerfEntityKind back to the managed object
// type name QueryPerfProviderSummary/QueryPerf expect in the entity
// reference.
var moTypeByEntityKind = map[model.PerfEntityKind]string{
	model.PerfEntityHostSystem:       "HostSystem",
	model.PerfEntityVirtualMachine:   "VirtualMachine",
	model.PerfEntityDatastore:        "Datastore",
}

// PerfFetcher implements the two-pass performance fetcher (C9).
type PerfFetcher struct {
	Insecure bool
	BindAddr string

	log *zap.SugaredLogger
}

func NewPerfFetcher(insecure bool, bindAddr string) *PerfFetcher {
	return &PerfFetcher{Insecure: insecure, BindAddr: bindAddr, log: zap.S().Named("perf_fetcher")}
}

// RunPerf satisfies internal/scheduler.PerfRunner.
func (f *PerfFetcher) RunPerf(ctx context.Context, svc *model.Service, ar *arena.Arena) error {
	client, err := dialAndLogin(ctx, svc, f.Insecure, f.BindAddr, f.log)
	if err != nil {
		return err
	}
	defer client.Logout(ctx)

	now := time.Now()
	// Cutoff is the previous perf cycle's start time, not this cycle's
	// (svc.LastPerf is stamped with a cycle's start time once that cycle
	// succeeds, in internal/scheduler/scheduler.go): the inventory touches
	// and the previous cycle's sample touches all predate `now`, so using
	// now.Unix() here would evict nearly every PerfEntity on every cycle.
	svc.Perf.EvictStale(svc.LastPerf.Load())

	perfManager := client.Vim.ServiceContent.PerfManager
	if perfManager == nil {
		return srverrors.NewInternalError("endpoint has no PerformanceManager")
	}

	entities := svc.Perf.All()
	f.discoverRefreshRates(ctx, client.Vim, *perfManager, entities)

	var realTime, historical []*model.PerfEntity
	for _, e := range entities {
		switch e.Refresh {
		case model.RefreshNone:
			historical = append(historical, e)
		case model.RefreshUnknown:
			// left unresolved in pass 1; skip this cycle.
		default:
			realTime = append(realTime, e)
		}
	}

	queryCap := defaultHistoricalBatchCap
	if snap := ar.Snapshot(svc.ID); snap != nil && snap.MaxQueryMetrics > 0 {
		queryCap = int(snap.MaxQueryMetrics)
	}

	if len(realTime) > 0 {
		if err := f.queryAll(ctx, client.Vim, *perfManager, realTime, realtimeBatchCap, true, now); err != nil {
			f.log.Warnw("real-time perf query failed", "service", svc.ID, "error", err)
		}
	}
	if len(historical) > 0 {
		if err := f.queryAll(ctx, client.Vim, *perfManager, historical, queryCap, false, now); err != nil {
			f.log.Warnw("historical perf query failed", "service", svc.ID, "error", err)
		}
	}

	return nil
}

// discoverRefreshRates implements spec.md §4.9 pass 1.
func (f *PerfFetcher) discoverRefreshRates(ctx context.Context, c *vim25.Client, perfManager types.ManagedObjectReference, entities []*model.PerfEntity) {
	for _, e := range entities {
		if e.Refresh != model.RefreshUnknown {
			continue
		}
		moType, ok := moTypeByEntityKind[e.Kind]
		if !ok {
			continue
		}
		ref := types.ManagedObjectReference{Type: moType, Value: e.ID}

		req := types.QueryPerfProviderSummary{This: perfManager, Entity: ref}
		res, err := methods.QueryPerfProviderSummary(ctx, c, &req)
		if err != nil {
			f.log.Debugw("query perf provider summary failed, leaving refresh unknown", "entity", e.ID, "error", err)
			continue
		}

		summary := res.Returnval
		if !summary.CurrentSupported {
			e.Refresh = model.RefreshNone
			continue
		}
		if summary.RefreshRate > 0 && summary.RefreshRate <= math.MaxInt32 {
			e.Refresh = summary.RefreshRate
			continue
		}
		f.log.Debugw("perf provider summary had no usable refresh rate, leaving unknown", "entity", e.ID)
	}
}

// queryAll assembles and issues QueryPerf batches for entities, respecting
// cap metric-tuples per batch, continuing a straddled entity's remaining
// counters in the next batch (spec.md §4.9 pass 2).
func (f *PerfFetcher) queryAll(ctx context.Context, c *vim25.Client, perfManager types.ManagedObjectReference, entities []*model.PerfEntity, batchCap int, realTime bool, now time.Time) error {
	i := 0
	for i < len(entities) {
		var specs []types.PerfQuerySpec
		byKey := map[model.PerfEntityID]*model.PerfEntity{}
		budget := batchCap

		for i < len(entities) && budget > 0 {
			e := entities[i]
			ids := e.CounterIDs()
			start := e.StartIndex()
			if start >= len(ids) {
				e.SetStartIndex(0)
				i++
				continue
			}

			end := start
			for end < len(ids) && budget > 0 {
				end++
				budget--
			}

			metricIDs := make([]types.PerfMetricId, 0, end-start)
			for _, cid := range ids[start:end] {
				metricIDs = append(metricIDs, types.PerfMetricId{CounterId: int32(cid), Instance: e.QueryInstance})
			}

			moType := moTypeByEntityKind[e.Kind]
			spec := types.PerfQuerySpec{
				Entity:    types.ManagedObjectReference{Type: moType, Value: e.ID},
				MaxSample: 1,
				MetricId:  metricIDs,
				Format:    string(types.PerfFormatCsv),
			}
			if realTime {
				spec.IntervalId = e.Refresh
			} else {
				start := now.Add(-1 * time.Hour)
				spec.StartTime = &start
			}
			specs = append(specs, spec)
			byKey[model.PerfEntityID{Kind: e.Kind, ID: e.ID}] = e

			if end < len(ids) {
				e.SetStartIndex(end)
				break
			}
			e.SetStartIndex(0)
			i++
		}

		if len(specs) == 0 {
			break
		}

		if err := f.query(ctx, c, perfManager, specs, byKey, now); err != nil {
			return err
		}
	}
	return nil
}

func (f *PerfFetcher) query(ctx context.Context, c *vim25.Client, perfManager types.ManagedObjectReference, specs []types.PerfQuerySpec, byKey map[model.PerfEntityID]*model.PerfEntity, now time.Time) error {
	req := types.QueryPerf{This: perfManager, QuerySpec: specs}
	res, err := methods.QueryPerf(ctx, c, &req)
	if err != nil {
		return srverrors.NewTransportError(c.URL().Host, err)
	}

	for _, base := range res.Returnval {
		csv, ok := base.(*types.PerfEntityMetricCSV)
		if !ok {
			continue
		}
		e, ok := byKey[model.PerfEntityID{Kind: moKindFromType(csv.Entity.Type), ID: csv.Entity.Value}]
		if !ok {
			continue
		}

		samplesByCounter := map[uint64][]model.Sample{}
		for _, series := range csv.Value {
			value, unavailable := model.ParsePerfValue(series.Value)
			if unavailable {
				f.log.Debugw("perf sample marked unavailable", "raw", series.Value)
			} else if value == model.SizeUnknown {
				f.log.Debugw("perf sample not numeric", "raw", series.Value)
			}
			counterID := uint64(series.Id.CounterId)
			samplesByCounter[counterID] = append(samplesByCounter[counterID], model.Sample{
				Instance: series.Id.Instance,
				Value:    value,
			})
		}

		for counterID, samples := range samplesByCounter {
			if pc, ok := e.Counters[counterID]; ok {
				pc.Ring.Replace(samples)
				pc.State = model.PerfCounterReady
			}
		}
		e.LastSeen = now.Unix()
	}
	return nil
}

func moKindFromType(moType string) model.PerfEntityKind {
	switch moType {
	case "HostSystem":
		return model.PerfEntityHostSystem
	case "VirtualMachine":
		return model.PerfEntityVirtualMachine
	default:
		return model.PerfEntityDatastore
	}
}
