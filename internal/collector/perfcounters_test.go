package collector

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("perfCounterName.path", func() {
	It("formats as group/name[rollupType], matching how vCenter keys PerfCounterInfo", func() {
		p := perfCounterName{group: "net", name: "packetsRx", rollupType: "summation"}
		Expect(p.path()).To(Equal("net/packetsRx[summation]"))
	})
})

var _ = Describe("allPerfCounterNames", func() {
	It("concatenates the host, VM and datastore counter tables without dropping any", func() {
		all := allPerfCounterNames()
		Expect(all).To(HaveLen(len(hvPerfCounters) + len(vmPerfCounters) + len(dsPerfCounters)))
	})

	It("gives every fixed counter a unique snapshot key", func() {
		seen := map[string]bool{}
		for _, p := range allPerfCounterNames() {
			Expect(seen[p.snapshotKey]).To(BeFalse(), "duplicate snapshot key %q", p.snapshotKey)
			seen[p.snapshotKey] = true
		}
	})
})
