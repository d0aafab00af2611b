package model

// DeepCopy builds a fresh Snapshot with every string interned through pool,
// leaving src (the "private memory" tree an InventoryFetcher builds)
// untouched. This is the "shared deep copy" operation spec.md §4.5 calls
// the only way inventories may cross into the arena, and the callback
// spec.md §4.1/§9 says an arena resize must invoke to rebuild the whole
// reachable graph in a new region.
func (src *Snapshot) DeepCopy(pool Interner) *Snapshot {
	if src == nil {
		return nil
	}
	dst := NewSnapshot()
	dst.MaxQueryMetrics = src.MaxQueryMetrics
	dst.Error = dst.intern(pool, src.Error)

	for id, hv := range src.Hypervisors {
		dst.Hypervisors[dst.intern(pool, id)] = hv.deepCopy(dst, pool)
	}
	for id, ds := range src.Datastores {
		copied := ds.deepCopy(dst, pool)
		dst.Datastores[dst.intern(pool, id)] = copied
	}
	dst.DatastoresByName = make([]*Datastore, 0, len(src.DatastoresByName))
	for _, ds := range src.DatastoresByName {
		if copied, ok := dst.Datastores[ds.ID]; ok {
			dst.DatastoresByName = append(dst.DatastoresByName, copied)
			continue
		}
		dst.DatastoresByName = append(dst.DatastoresByName, ds.deepCopy(dst, pool))
	}
	for id, c := range src.Clusters {
		dst.Clusters[dst.intern(pool, id)] = c.deepCopy(dst, pool)
	}
	dst.Events = make([]*Event, 0, len(src.Events))
	for _, ev := range src.Events {
		dst.Events = append(dst.Events, ev.deepCopy(dst, pool))
	}

	return dst
}

func (hv *Hypervisor) deepCopy(dst *Snapshot, pool Interner) *Hypervisor {
	out := &Hypervisor{
		UUID:       dst.intern(pool, hv.UUID),
		ID:         dst.intern(pool, hv.ID),
		ClusterID:  dst.intern(pool, hv.ClusterID),
		Datacenter: dst.intern(pool, hv.Datacenter),
		ParentName: dst.intern(pool, hv.ParentName),
		ParentType: dst.intern(pool, hv.ParentType),
		Props:      make(map[string]string, len(hv.Props)),
	}
	for k, v := range hv.Props {
		out.Props[k] = dst.intern(pool, v)
	}
	out.DatastoreNames = make([]string, len(hv.DatastoreNames))
	for i, n := range hv.DatastoreNames {
		out.DatastoreNames[i] = dst.intern(pool, n)
	}
	out.VMs = make([]*VirtualMachine, len(hv.VMs))
	for i, vm := range hv.VMs {
		out.VMs[i] = vm.deepCopy(dst, pool)
	}
	return out
}

func (vm *VirtualMachine) deepCopy(dst *Snapshot, pool Interner) *VirtualMachine {
	out := &VirtualMachine{
		UUID:  dst.intern(pool, vm.UUID),
		ID:    dst.intern(pool, vm.ID),
		Props: make(map[string]string, len(vm.Props)),
	}
	for k, v := range vm.Props {
		out.Props[k] = dst.intern(pool, v)
	}
	out.Devices = make([]Device, len(vm.Devices))
	for i, d := range vm.Devices {
		out.Devices[i] = Device{
			Type:     d.Type,
			Instance: dst.intern(pool, d.Instance),
			Label:    dst.intern(pool, d.Label),
		}
	}
	out.FileSystems = make([]FileSystem, len(vm.FileSystems))
	for i, fs := range vm.FileSystems {
		out.FileSystems[i] = FileSystem{
			Path:     dst.intern(pool, fs.Path),
			Capacity: fs.Capacity,
			Free:     fs.Free,
		}
	}
	return out
}

func (ds *Datastore) deepCopy(dst *Snapshot, pool Interner) *Datastore {
	out := &Datastore{
		ID:          dst.intern(pool, ds.ID),
		Name:        dst.intern(pool, ds.Name),
		UUID:        dst.intern(pool, ds.UUID),
		Capacity:    ds.Capacity,
		Free:        ds.Free,
		Uncommitted: ds.Uncommitted,
	}
	out.HypervisorUUIDs = make([]string, len(ds.HypervisorUUIDs))
	for i, u := range ds.HypervisorUUIDs {
		out.HypervisorUUIDs[i] = dst.intern(pool, u)
	}
	return out
}

func (c *Cluster) deepCopy(dst *Snapshot, pool Interner) *Cluster {
	return &Cluster{
		ID:     dst.intern(pool, c.ID),
		Name:   dst.intern(pool, c.Name),
		Status: dst.intern(pool, c.Status),
	}
}

func (e *Event) deepCopy(dst *Snapshot, pool Interner) *Event {
	return &Event{
		Key:       e.Key,
		Timestamp: e.Timestamp,
		Message:   dst.intern(pool, e.Message),
	}
}
