package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/performance"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/kubev2v/vcenter-collector/internal/arena"
	"github.com/kubev2v/vcenter-collector/internal/model"
	"github.com/kubev2v/vcenter-collector/internal/propiter"
	"github.com/kubev2v/vcenter-collector/internal/vsoap"
	srverrors "github.com/kubev2v/vcenter-collector/pkg/errors"
)

// extra properties fetched alongside the named propmap tables: not
// reported in Hypervisor.Props/VirtualMachine.Props themselves, but
// needed to build the cross-links and device/filesystem lists spec.md
// §4.6 steps 5-6 describe.
const (
	propHVDatastore = "datastore"
	propHVParent    = "parent"
	propVMHost      = "runtime.host"
	propVMDevices   = "config.hardware.device"
	propVMGuestDisk = "guest.disk"
	propVMUUID      = "config.uuid"
	propVMInstUUID  = "config.instanceUuid"
)

// Fetcher implements spec.md §4.6's Inventory Fetcher.
type Fetcher struct {
	Insecure bool
	BindAddr string

	log *zap.SugaredLogger
}

func NewFetcher(insecure bool, bindAddr string) *Fetcher {
	return &Fetcher{Insecure: insecure, BindAddr: bindAddr, log: zap.S().Named("inventory_fetcher")}
}

// RunInventory executes one complete cycle for svc. A login failure
// returns before anything is promoted. A step that fails after login
// records its error in Snapshot.Error and the remaining steps still run;
// whatever was built is promoted, and the cycle then returns an error so
// the scheduler marks the Service failed.
func (f *Fetcher) RunInventory(ctx context.Context, svc *model.Service, ar *arena.Arena) error {
	client, err := f.connect(ctx, svc)
	if err != nil {
		return err
	}
	defer client.Logout(ctx)

	snap := model.NewSnapshot()

	if svc.Counters.Len() == 0 {
		if err := f.fillCounterCatalogue(ctx, client.Vim, svc); err != nil {
			f.log.Warnw("counter catalogue fetch failed", "service", svc.ID, "error", err)
			snap.Error = err.Error()
		}
	}

	root := client.Vim.ServiceContent.RootFolder

	clusters, err := f.collectClusters(ctx, client.Vim, svc, root)
	if err != nil {
		f.log.Warnw("cluster collection failed", "service", svc.ID, "error", err)
		snap.Error = err.Error()
	}
	for id, c := range clusters {
		snap.Clusters[id] = c
	}
	clusterNames := map[string]string{}
	for id, c := range clusters {
		clusterNames[id] = c.Name
	}

	hostRefsByDS, err := f.collectDatastores(ctx, client.Vim, svc, root, snap)
	if err != nil {
		f.log.Warnw("datastore collection failed", "service", svc.ID, "error", err)
		snap.Error = err.Error()
	}

	hvByID, err := f.collectHypervisors(ctx, client.Vim, svc, root, clusterNames, snap)
	if err != nil {
		f.log.Warnw("hypervisor collection failed", "service", svc.ID, "error", err)
		snap.Error = err.Error()
	}

	// Datastore.HypervisorUUIDs names hardware uuids, but the "host"
	// property only gives HostSystem MoRefs (spec.md §4.6 step 5); the
	// matching Hypervisor.UUID isn't known until collectHypervisors has
	// run, so resolve the join here rather than inline in collectDatastores.
	resolveDatastoreHypervisors(snap, hostRefsByDS, hvByID)

	if err := f.collectVMs(ctx, client.Vim, svc, root, hvByID); err != nil {
		f.log.Warnw("vm collection failed", "service", svc.ID, "error", err)
		snap.Error = err.Error()
	}

	if svc.Type() == model.ServiceTypeVCenter {
		mqm, err := f.maxQueryMetrics(ctx, client.Vim)
		if err != nil {
			f.log.Debugw("max query metrics lookup failed, using default", "service", svc.ID, "error", err)
			mqm = 64
		}
		snap.MaxQueryMetrics = mqm
	} else {
		snap.MaxQueryMetrics = 64
	}

	f.populatePerfEntities(svc, snap)

	ar.PromoteSnapshot(svc.ID, snap)
	svc.LastInventory.Store(time.Now().Unix())
	if snap.Error != "" {
		return fmt.Errorf("inventory cycle incomplete: %s", snap.Error)
	}
	return nil
}

// connect implements spec.md §4.6 step 1: login, and on the very first
// successful cycle, pin the Service's type forever from the endpoint's
// own ServiceContent.About.ApiType. A login fault is inspected through
// xmlview: when it shows the endpoint is a standalone ESXi host rather
// than a vCenter, the Service is switched to vSphere and the login is
// retried once with the same credentials.
func (f *Fetcher) connect(ctx context.Context, svc *model.Service) (*vsoap.Client, error) {
	return dialAndLogin(ctx, svc, f.Insecure, f.BindAddr, f.log)
}

// fillCounterCatalogue implements spec.md §4.6 step 2: one-time
// CounterInfo fetch, registering two keys per counter.
func (f *Fetcher) fillCounterCatalogue(ctx context.Context, c *vim25.Client, svc *model.Service) error {
	pm := performance.NewManager(c)
	infos, err := pm.CounterInfo(ctx)
	if err != nil {
		return srverrors.NewTransportError(c.URL().Host, err)
	}
	for _, info := range infos {
		if info.GroupInfo == nil || info.NameInfo == nil {
			continue
		}
		group := info.GroupInfo.GetElementDescription().Key
		name := info.NameInfo.GetElementDescription().Key
		base := fmt.Sprintf("%s/%s[%s]", group, name, info.RollupType)
		withStats := fmt.Sprintf("%s/%s[%s,%s]", group, name, info.RollupType, info.StatsType)
		svc.Counters.Set(base, uint64(info.Key))
		svc.Counters.Set(withStats, uint64(info.Key))
	}
	return nil
}

func (f *Fetcher) collectClusters(ctx context.Context, c *vim25.Client, svc *model.Service, root types.ManagedObjectReference) (map[string]*model.Cluster, error) {
	out := map[string]*model.Cluster{}
	if svc.Type() != model.ServiceTypeVCenter {
		return out, nil
	}
	spec := propertyFilterSpec(root, "ClusterComputeResource", []string{"name", "overallStatus"})
	objs, err := propiter.CollectAll(ctx, c, []types.PropertyFilterSpec{spec})
	if err != nil {
		return out, err
	}
	for _, obj := range objs {
		name, _ := propiter.PropValue(obj, "name")
		status, _ := propiter.PropValue(obj, "overallStatus")
		out[obj.Obj.Value] = &model.Cluster{
			ID:     obj.Obj.Value,
			Name:   stringifyProp(name),
			Status: stringifyProp(status),
		}
	}
	return out, nil
}

// collectDatastores implements spec.md §4.6 step 4. The "host" property
// only gives each mount's HostSystem MoRef, not the owning Hypervisor's
// hardware uuid, so the returned map carries those raw MoRefs keyed by
// datastore id for resolveDatastoreHypervisors to join against hvByID
// once collectHypervisors has run. Sizes are read from the summary as the
// server last computed it; no storage-info refresh is issued first.
func (f *Fetcher) collectDatastores(ctx context.Context, c *vim25.Client, svc *model.Service, root types.ManagedObjectReference, snap *model.Snapshot) (map[string][]string, error) {
	paths := []string{"name", "summary.capacity", "summary.freeSpace", "summary.uncommitted", "host", "info"}
	spec := propertyFilterSpec(root, "Datastore", paths)
	objs, err := propiter.CollectAll(ctx, c, []types.PropertyFilterSpec{spec})
	if err != nil {
		return nil, err
	}

	hostRefsByDS := map[string][]string{}
	isVC := svc.Type() == model.ServiceTypeVCenter
	for _, obj := range objs {
		ds := &model.Datastore{
			ID:          obj.Obj.Value,
			Capacity:    model.SizeUnknown,
			Free:        model.SizeUnknown,
			Uncommitted: model.SizeUnknown,
		}
		if name, ok := propiter.PropValue(obj, "name"); ok {
			ds.Name = stringifyProp(name)
		}
		if v, ok := propiter.PropValue(obj, "summary.capacity"); ok && isVC {
			if n, ok := v.(int64); ok && n >= 0 {
				ds.Capacity = uint64(n)
			}
		}
		if v, ok := propiter.PropValue(obj, "summary.freeSpace"); ok && isVC {
			if n, ok := v.(int64); ok && n >= 0 {
				ds.Free = uint64(n)
			}
		}
		if v, ok := propiter.PropValue(obj, "summary.uncommitted"); ok && isVC {
			if n, ok := v.(int64); ok && n >= 0 {
				ds.Uncommitted = uint64(n)
			}
		}
		if v, ok := propiter.PropValue(obj, "info"); ok {
			if nas, ok := v.(*types.NasDatastoreInfo); ok && nas.Url != "" {
				ds.UUID = trimTrailingSlash(nas.Url)
			} else if vmfs, ok := v.(*types.VmfsDatastoreInfo); ok && vmfs.Url != "" {
				ds.UUID = trimTrailingSlash(vmfs.Url)
			}
			if i := strings.LastIndexByte(ds.UUID, '/'); i >= 0 {
				ds.UUID = ds.UUID[i+1:]
			}
		}
		if v, ok := propiter.PropValue(obj, "host"); ok {
			if mounts, ok := v.([]types.DatastoreHostMount); ok {
				for _, m := range mounts {
					hostRefsByDS[ds.ID] = append(hostRefsByDS[ds.ID], m.Key.Value)
				}
			}
		}
		snap.Datastores[ds.ID] = ds
		snap.DatastoresByName = append(snap.DatastoresByName, ds)
	}
	return hostRefsByDS, nil
}

// resolveDatastoreHypervisors joins each datastore's raw HostSystem MoRefs
// (collectDatastores) against the Hypervisor built for that MoRef
// (collectHypervisors), per spec.md §4.6 step 5 / vmware.c:3370 — the
// snapshot stores hardware uuids, not MoRefs, in Datastore.HypervisorUUIDs.
func resolveDatastoreHypervisors(snap *model.Snapshot, hostRefsByDS map[string][]string, hvByID map[string]*model.Hypervisor) {
	for dsID, refs := range hostRefsByDS {
		ds, ok := snap.Datastores[dsID]
		if !ok {
			continue
		}
		for _, ref := range refs {
			if hv, ok := hvByID[ref]; ok {
				ds.HypervisorUUIDs = append(ds.HypervisorUUIDs, hv.UUID)
			}
		}
	}
}

func trimTrailingSlash(s string) string {
	if len(s) > 0 && s[len(s)-1] == '/' {
		return s[:len(s)-1]
	}
	return s
}

// collectHypervisors implements spec.md §4.6 step 5, returning a lookup
// from server-side HostSystem id to the built Hypervisor so VM collection
// can attach VMs to their owning host.
func (f *Fetcher) collectHypervisors(ctx context.Context, c *vim25.Client, svc *model.Service, root types.ManagedObjectReference, clusterNames map[string]string, snap *model.Snapshot) (map[string]*model.Hypervisor, error) {
	paths := append(append([]string{}, propPaths(hvPropMap)...), propHVDatastore, propHVParent)
	spec := propertyFilterSpec(root, "HostSystem", paths)
	objs, err := propiter.CollectAll(ctx, c, []types.PropertyFilterSpec{spec})
	if err != nil {
		return nil, err
	}

	byID := map[string]*model.Hypervisor{}
	for _, obj := range objs {
		props := map[string]string{}
		var uuid string
		for _, pm := range hvPropMap {
			v, _ := propiter.PropValue(obj, pm.path)
			s := stringifyProp(v)
			props[pm.key] = s
			if pm.path == "summary.hardware.uuid" {
				uuid = s
			}
		}
		if uuid == "" {
			uuid = obj.Obj.Value
		}

		hv := &model.Hypervisor{UUID: uuid, ID: obj.Obj.Value, Props: props}

		if v, ok := propiter.PropValue(obj, propHVDatastore); ok {
			if refs, ok := v.([]types.ManagedObjectReference); ok {
				for _, ref := range refs {
					// "datastore" only gives the MoRef; vmware.c:3373 stores
					// the datastore's name, which collectDatastores has
					// already populated into snap.Datastores by this point.
					if ds, ok := snap.Datastores[ref.Value]; ok {
						hv.DatastoreNames = append(hv.DatastoreNames, ds.Name)
					}
				}
			}
		}

		if v, ok := propiter.PropValue(obj, propHVParent); ok {
			if ref, ok := v.(types.ManagedObjectReference); ok {
				switch ref.Type {
				case "ClusterComputeResource":
					hv.ClusterID = ref.Value
					hv.ParentType = "cluster"
					hv.ParentName = clusterNames[ref.Value]
				case "ComputeResource":
					hv.ParentType = "Vcenter"
					if svc.Type() == model.ServiceTypeVSphere {
						hv.ParentType = "ESXi"
					}
				}
			}
		}

		snap.Hypervisors[uuid] = hv
		byID[obj.Obj.Value] = hv
	}
	return byID, nil
}

// collectVMs implements spec.md §4.6 step 6, attaching each VM to the
// Hypervisor its runtime.host property names.
func (f *Fetcher) collectVMs(ctx context.Context, c *vim25.Client, svc *model.Service, root types.ManagedObjectReference, hvByID map[string]*model.Hypervisor) error {
	paths := append(append([]string{}, propPaths(vmPropMap)...),
		propVMHost, propVMDevices, propVMGuestDisk, propVMUUID, propVMInstUUID)
	spec := propertyFilterSpec(root, "VirtualMachine", paths)
	objs, err := propiter.CollectAll(ctx, c, []types.PropertyFilterSpec{spec})
	if err != nil {
		return err
	}

	for _, obj := range objs {
		props := map[string]string{}
		for _, pm := range vmPropMap {
			v, _ := propiter.PropValue(obj, pm.path)
			props[pm.key] = stringifyProp(v)
		}

		uuid := ""
		if svc.Type() == model.ServiceTypeVCenter {
			if v, ok := propiter.PropValue(obj, propVMInstUUID); ok {
				uuid = stringifyProp(v)
			}
		}
		if uuid == "" {
			if v, ok := propiter.PropValue(obj, propVMUUID); ok {
				uuid = stringifyProp(v)
			}
		}

		vm := &model.VirtualMachine{UUID: uuid, ID: obj.Obj.Value, Props: props}

		if v, ok := propiter.PropValue(obj, propVMDevices); ok {
			if devs, ok := v.([]types.BaseVirtualDevice); ok {
				vm.Devices = classifyDevices(devs)
			}
		}
		if v, ok := propiter.PropValue(obj, propVMGuestDisk); ok {
			vm.FileSystems = fileSystemsFromGuestDisk(v)
		}

		if v, ok := propiter.PropValue(obj, propVMHost); ok {
			if ref, ok := v.(types.ManagedObjectReference); ok {
				if hv, ok := hvByID[ref.Value]; ok {
					hv.VMs = append(hv.VMs, vm)
				}
			}
		}
	}
	return nil
}

// maxQueryMetrics implements spec.md §4.6 step 8.
func (f *Fetcher) maxQueryMetrics(ctx context.Context, c *vim25.Client) (uint32, error) {
	om := object.NewOptionManager(c, *c.ServiceContent.Setting)
	opts, err := om.Query(ctx, "config.vpxd.stats.maxQueryMetrics")
	if err != nil {
		return 64, srverrors.NewTransportError(c.URL().Host, err)
	}
	for _, opt := range opts {
		v := opt.GetOptionValue()
		if v.Key != "config.vpxd.stats.maxQueryMetrics" {
			continue
		}
		n, ok := v.Value.(int32)
		if !ok {
			return 64, nil
		}
		if n <= 0 {
			return 1000, nil
		}
		return uint32(n), nil
	}
	return 64, nil
}

// populatePerfEntities implements spec.md §4.8: one PerfEntity per HV
// (counter set A), one per VM (set B), one per Datastore (set C, vCenter
// only), each tracking the fixed counter names resolved through the
// registry fillCounterCatalogue just populated. Run at the end of the
// inventory cycle so C9 always samples against the inventory this cycle
// just promoted.
func (f *Fetcher) populatePerfEntities(svc *model.Service, snap *model.Snapshot) {
	now := time.Now().Unix()

	for _, hv := range snap.Hypervisors {
		e := svc.Perf.Ensure(model.PerfEntityHostSystem, hv.ID, "*")
		f.trackCounters(svc, e, hvPerfCounters)
		svc.Perf.Touch(model.PerfEntityHostSystem, hv.ID, now)
		for _, vm := range hv.VMs {
			ve := svc.Perf.Ensure(model.PerfEntityVirtualMachine, vm.ID, "*")
			f.trackCounters(svc, ve, vmPerfCounters)
			svc.Perf.Touch(model.PerfEntityVirtualMachine, vm.ID, now)
		}
	}

	if svc.Type() == model.ServiceTypeVCenter {
		for _, ds := range snap.DatastoresByName {
			e := svc.Perf.Ensure(model.PerfEntityDatastore, ds.ID, "")
			f.trackCounters(svc, e, dsPerfCounters)
			svc.Perf.Touch(model.PerfEntityDatastore, ds.ID, now)
		}
	}
}

func (f *Fetcher) trackCounters(svc *model.Service, e *model.PerfEntity, names []perfCounterName) {
	for _, n := range names {
		id, ok := svc.Counters.Get(n.path())
		if !ok {
			f.log.Debugw("perf counter not in registry, skipping", "counter", n.path())
			continue
		}
		e.EnsureCounter(id)
	}
}
