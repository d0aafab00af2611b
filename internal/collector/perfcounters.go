package collector

// perfCounterName is a "group/name[rollupType]" triplet the way vmware.c's
// perf counter tables and QueryPerfCounterByLevel both key counters, e.g.
// "net/packetsRx[summation]". CounterRegistry (internal/model) maps these
// strings to the numeric counterId a vCenter instance assigns them, since
// that id is not stable across vCenter versions or installations.
type perfCounterName struct {
	group       string
	name        string
	rollupType  string
	snapshotKey string
}

func (p perfCounterName) path() string {
	return p.group + "/" + p.name + "[" + p.rollupType + "]"
}

// hvPerfCounters is vmware.c's hv_perfcounters[].
var hvPerfCounters = []perfCounterName{
	{"net", "packetsRx", "summation", "hv.net.packets_rx"},
	{"net", "packetsTx", "summation", "hv.net.packets_tx"},
	{"net", "received", "average", "hv.net.received"},
	{"net", "transmitted", "average", "hv.net.transmitted"},
	{"datastore", "totalReadLatency", "average", "hv.datastore.total_read_latency"},
	{"datastore", "totalWriteLatency", "average", "hv.datastore.total_write_latency"},
}

// vmPerfCounters is vmware.c's vm_perfcounters[].
var vmPerfCounters = []perfCounterName{
	{"virtualDisk", "read", "average", "vm.vdisk.read"},
	{"virtualDisk", "write", "average", "vm.vdisk.write"},
	{"virtualDisk", "numberReadAveraged", "average", "vm.vdisk.num_read_averaged"},
	{"virtualDisk", "numberWriteAveraged", "average", "vm.vdisk.num_write_averaged"},
	{"net", "packetsRx", "summation", "vm.net.packets_rx"},
	{"net", "packetsTx", "summation", "vm.net.packets_tx"},
	{"net", "received", "average", "vm.net.received"},
	{"net", "transmitted", "average", "vm.net.transmitted"},
	{"cpu", "ready", "summation", "vm.cpu.ready"},
}

// dsPerfCounters is vmware.c's ds_perfcounters[].
var dsPerfCounters = []perfCounterName{
	{"disk", "used", "latest", "ds.disk.used"},
	{"disk", "provisioned", "latest", "ds.disk.provisioned"},
	{"disk", "capacity", "latest", "ds.disk.capacity"},
}

func allPerfCounterNames() []perfCounterName {
	all := make([]perfCounterName, 0, len(hvPerfCounters)+len(vmPerfCounters)+len(dsPerfCounters))
	all = append(all, hvPerfCounters...)
	all = append(all, vmPerfCounters...)
	all = append(all, dsPerfCounters...)
	return all
}
