package collector

// propMapping pairs a govmomi property path with the key it is stored
// under in a Snapshot's Props map. This is a direct transcription of
// vmware.c's hv_propmap[]/vm_propmap[] tables; names on the right are
// kept identical to the C source's ZBX_VMWARE_KEY_* constants (lowercased,
// spec.md never renames them) so operators migrating a dashboard query
// see the same field names.
type propMapping struct {
	path string
	key  string
}

// hvPropMap is vmware.c's hv_propmap[], the property set fetched once per
// hypervisor during C6's inventory walk.
var hvPropMap = []propMapping{
	{"summary.quickStats.overallCpuUsage", "hv.quickstats.overall_cpu_usage"},
	{"summary.config.product.fullName", "hv.full_name"},
	{"summary.hardware.numCpuCores", "hv.hw.num_cpu_cores"},
	{"summary.hardware.cpuMhz", "hv.hw.cpu_mhz"},
	{"summary.hardware.cpuModel", "hv.hw.cpu_model"},
	{"summary.hardware.numCpuThreads", "hv.hw.num_cpu_threads"},
	{"summary.hardware.memorySize", "hv.hw.memory_size"},
	{"summary.hardware.model", "hv.hw.model"},
	{"summary.hardware.uuid", "hv.hw.uuid"},
	{"summary.hardware.vendor", "hv.hw.vendor"},
	{"summary.quickStats.overallMemoryUsage", "hv.quickstats.overall_memory_usage"},
	{"runtime.healthSystemRuntime.systemHealthInfo", "hv.sensor.vmware_rollup_health_state"},
	{"summary.quickStats.uptime", "hv.quickstats.uptime"},
	{"summary.config.product.version", "hv.version"},
	{"summary.config.name", "hv.name"},
	{"overallStatus", "hv.status"},
}

// vmPropMap is vmware.c's vm_propmap[], fetched once per virtual machine.
var vmPropMap = []propMapping{
	{"summary.config.numCpu", "vm.num_cpu"},
	{"summary.quickStats.overallCpuUsage", "vm.quickstats.overall_cpu_usage"},
	{"summary.config.name", "vm.name"},
	{"summary.config.memorySizeMB", "vm.memory_size"},
	{"summary.quickStats.balloonedMemory", "vm.quickstats.ballooned_memory"},
	{"summary.quickStats.compressedMemory", "vm.quickstats.compressed_memory"},
	{"summary.quickStats.swappedMemory", "vm.quickstats.swapped_memory"},
	{"summary.quickStats.guestMemoryUsage", "vm.quickstats.guest_memory_usage"},
	{"summary.quickStats.hostMemoryUsage", "vm.quickstats.host_memory_usage"},
	{"summary.quickStats.privateMemory", "vm.quickstats.private_memory"},
	{"summary.quickStats.sharedMemory", "vm.quickstats.shared_memory"},
	{"summary.runtime.powerState", "vm.power_state"},
	{"summary.storage.committed", "vm.storage.committed"},
	{"summary.storage.unshared", "vm.storage.unshared"},
	{"summary.storage.uncommitted", "vm.storage.uncommitted"},
	{"summary.quickStats.uptimeSeconds", "vm.quickstats.uptime_seconds"},
}

// sensorHealthStateName is the systemHealthInfo sensor vmware.c pulls the
// rollup health state from ("VMware Rollup Health State").
const sensorHealthStateName = "VMware Rollup Health State"

func propPaths(m []propMapping) []string {
	paths := make([]string, len(m))
	for i, p := range m {
		paths[i] = p.path
	}
	return paths
}
