package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/vcenter-collector/internal/model"
)

var _ = Describe("ParsePerfValue", func() {
	It("maps the \"-1\" marker to SizeUnknown and flags it as the marker", func() {
		v, marker := model.ParsePerfValue("-1")
		Expect(v).To(Equal(model.SizeUnknown))
		Expect(marker).To(BeTrue())
	})

	It("parses an ordinary numeric string", func() {
		v, marker := model.ParsePerfValue("12345")
		Expect(v).To(BeEquivalentTo(12345))
		Expect(marker).To(BeFalse())
	})

	It("maps unparsable text to SizeUnknown without the marker flag", func() {
		v, marker := model.ParsePerfValue("not-a-number")
		Expect(v).To(Equal(model.SizeUnknown))
		Expect(marker).To(BeFalse())
	})

	It("maps the empty string to SizeUnknown without the marker flag", func() {
		v, marker := model.ParsePerfValue("")
		Expect(v).To(Equal(model.SizeUnknown))
		Expect(marker).To(BeFalse())
	})
})

var _ = Describe("PerfEntity", func() {
	It("tracks counters idempotently in insertion order", func() {
		e := model.NewPerfEntity(model.PerfEntityHostSystem, "host-1", "*")
		Expect(e.EnsureCounter(10)).To(BeTrue())
		Expect(e.EnsureCounter(20)).To(BeTrue())
		Expect(e.EnsureCounter(10)).To(BeFalse())
		Expect(e.CounterIDs()).To(Equal([]uint64{10, 20}))
	})

	It("starts with refresh rate unknown until pass 1 resolves it", func() {
		e := model.NewPerfEntity(model.PerfEntityVirtualMachine, "vm-1", "*")
		Expect(e.Refresh).To(Equal(model.RefreshUnknown))
	})

	It("remembers a straddled batch's continuation index", func() {
		e := model.NewPerfEntity(model.PerfEntityDatastore, "ds-1", "")
		e.SetStartIndex(3)
		Expect(e.StartIndex()).To(Equal(3))
	})
})

var _ = Describe("PerfTable", func() {
	It("creates an entity once and returns the same pointer on repeat Ensure", func() {
		t := model.NewPerfTable()
		a := t.Ensure(model.PerfEntityHostSystem, "host-1", "*")
		b := t.Ensure(model.PerfEntityHostSystem, "host-1", "*")
		Expect(a).To(BeIdenticalTo(b))
	})

	It("evicts entities whose LastSeen predates the cutoff", func() {
		t := model.NewPerfTable()
		t.Ensure(model.PerfEntityHostSystem, "stale", "*")
		t.Touch(model.PerfEntityHostSystem, "stale", 100)

		t.Ensure(model.PerfEntityHostSystem, "fresh", "*")
		t.Touch(model.PerfEntityHostSystem, "fresh", 500)

		evicted := t.EvictStale(200)
		Expect(evicted).To(ConsistOf(model.PerfEntityID{Kind: model.PerfEntityHostSystem, ID: "stale"}))

		_, staleStillThere := t.Get(model.PerfEntityHostSystem, "stale")
		Expect(staleStillThere).To(BeFalse())
		_, freshStillThere := t.Get(model.PerfEntityHostSystem, "fresh")
		Expect(freshStillThere).To(BeTrue())
	})
})

var _ = Describe("CounterRegistry", func() {
	It("round-trips a counter id by path", func() {
		r := model.NewCounterRegistry()
		r.Set("net/packetsRx[summation]", 42)
		id, ok := r.Get("net/packetsRx[summation]")
		Expect(ok).To(BeTrue())
		Expect(id).To(BeEquivalentTo(42))
		Expect(r.Len()).To(Equal(1))
	})

	It("reports a miss for an unregistered path", func() {
		r := model.NewCounterRegistry()
		_, ok := r.Get("cpu/ready[summation]")
		Expect(ok).To(BeFalse())
	})
})
