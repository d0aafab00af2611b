package model

import "math"

// SizeUnknown is the u64::MAX sentinel spec.md uses for "unknown" byte
// counts (datastore capacity/free/uncommitted when the service type does
// not expose them).
const SizeUnknown uint64 = math.MaxUint64

// Interner is the half of internal/arena.StringPool that model needs.
// Declaring it here (instead of importing arena) keeps the dependency
// one-directional: arena imports model, model never imports arena.
type Interner interface {
	Intern(s string) string
}

// Releaser is the half of internal/arena.StringPool used to reclaim a
// snapshot's strings once it is no longer reachable.
type Releaser interface {
	Release(s string)
}

// Snapshot is the immutable-by-convention inventory tree rooted at a
// Service, replaced wholesale at the end of every inventory cycle
// (spec.md §3).
type Snapshot struct {
	Hypervisors map[string]*Hypervisor // keyed by hardware UUID
	Datastores  map[string]*Datastore  // keyed by server-side id
	DatastoresByName []*Datastore       // secondary ordered view
	Clusters    map[string]*Cluster
	Events      []*Event // newest-first

	MaxQueryMetrics uint32
	Error           string

	// internedStrings lists every string value this snapshot pushed
	// through an Interner, so arena.PromoteSnapshot can release them all
	// in one pass when this snapshot is superseded.
	internedStrings []string
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Hypervisors: map[string]*Hypervisor{},
		Datastores:  map[string]*Datastore{},
		Clusters:    map[string]*Cluster{},
	}
}

// Release returns every string this snapshot interned to the pool. Call
// once, when the snapshot is discarded.
func (s *Snapshot) Release(pool Releaser) {
	if s == nil {
		return
	}
	for _, str := range s.internedStrings {
		pool.Release(str)
	}
}

func (s *Snapshot) intern(pool Interner, v string) string {
	if v == "" {
		return ""
	}
	interned := pool.Intern(v)
	s.internedStrings = append(s.internedStrings, interned)
	return interned
}

// Hypervisor is an ESXi host (vendor HostSystem).
type Hypervisor struct {
	UUID       string // hardware UUID, map key
	ID         string // server-side managed object id
	ClusterID  string
	Datacenter string
	ParentName string
	ParentType string // "cluster", or "Vcenter"/"ESXi" for a standalone host; folder and datacenter parents are not resolved and Datacenter stays empty

	// Props holds the 16 named properties from vmware.c's hv_propmap,
	// keyed by the key strings in internal/collector/propmap.go.
	Props map[string]string

	DatastoreNames []string
	VMs            []*VirtualMachine
}

// VirtualMachine is a guest VM (vendor VirtualMachine).
type VirtualMachine struct {
	UUID string // config.instanceUuid (vCenter) or config.uuid (vSphere)
	ID   string

	Props map[string]string

	Devices     []Device
	FileSystems []FileSystem
}

type DeviceType int

const (
	DeviceTypeNIC DeviceType = iota
	DeviceTypeDisk
)

// Device is a VM hardware device: a NIC (instance = its device key) or a
// VirtualDisk (instance synthesized as "{scsi|sata|ide|nvme}{bus}:{unit}").
type Device struct {
	Type     DeviceType
	Instance string
	Label    string
}

// FileSystem is a guest-visible mount point reported by VMware Tools.
type FileSystem struct {
	Path     string
	Capacity uint64
	Free     uint64
}

// Datastore is a vSphere storage container attached to one or more
// hypervisors.
type Datastore struct {
	ID   string // server-side id, map key
	Name string
	UUID string // derived from the trailing mountInfo.path component

	Capacity    uint64 // SizeUnknown unless vCenter
	Free        uint64
	Uncommitted uint64

	HypervisorUUIDs []string
}

// Cluster is a ClusterComputeResource (vCenter only).
type Cluster struct {
	ID      string
	Name    string
	Status  string // overallStatus
}

// Event is one vCenter/ESXi event-log entry.
type Event struct {
	Key       int64
	Timestamp int64 // unix seconds UTC, 0 if createdTime was absent/invalid
	Message   string
}

// internField is a small helper so every typed copier below reads the
// same way: assign the interned form of src, tracking it for release.
func internField(snap *Snapshot, pool Interner, v string) string {
	return snap.intern(pool, v)
}
