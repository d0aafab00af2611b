package arena_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/vcenter-collector/internal/arena"
	"github.com/kubev2v/vcenter-collector/internal/model"
)

var _ = Describe("StringPool", func() {
	It("interns idempotently and refcounts", func() {
		p := arena.NewStringPool()
		a := p.Intern("esxi-01")
		b := p.Intern("esxi-01")
		Expect(a).To(Equal(b))
		Expect(p.RefCount("esxi-01")).To(BeEquivalentTo(2))
	})

	It("removes the entry once refcount reaches zero", func() {
		p := arena.NewStringPool()
		p.Intern("x")
		p.Release("x")
		Expect(p.RefCount("x")).To(BeEquivalentTo(0))
	})

	It("treats the empty string as the null sentinel, never stored", func() {
		p := arena.NewStringPool()
		Expect(p.Intern("")).To(Equal(""))
		Expect(p.Len()).To(Equal(0))
	})
})

var _ = Describe("Arena", func() {
	It("never reports used greater than size", func() {
		a := arena.New(0)
		a.Reserve(10)
		total, used := a.Statistics()
		Expect(used).To(BeNumerically("<=", total))
	})

	It("promotes a snapshot and makes it readable", func() {
		a := arena.New(0)
		snap := model.NewSnapshot()
		snap.Hypervisors["hv-uuid-1"] = &model.Hypervisor{UUID: "hv-uuid-1", ID: "host-1", Props: map[string]string{}}

		a.PromoteSnapshot("svc-1", snap)

		got := a.Snapshot("svc-1")
		Expect(got).NotTo(BeNil())
		Expect(got.Hypervisors).To(HaveKey("hv-uuid-1"))
		// the copy must not alias the private tree
		Expect(got.Hypervisors["hv-uuid-1"]).NotTo(BeIdenticalTo(snap.Hypervisors["hv-uuid-1"]))
	})

	It("releases the previous snapshot's strings when a new one is promoted", func() {
		a := arena.New(0)
		first := model.NewSnapshot()
		first.Clusters["c1"] = &model.Cluster{ID: "c1", Name: "prod", Status: "green"}
		a.PromoteSnapshot("svc-1", first)

		second := model.NewSnapshot()
		a.PromoteSnapshot("svc-1", second)

		Expect(a.Pool().RefCount("prod")).To(BeEquivalentTo(0))
	})

	It("only compacts once per compress period", func() {
		a := arena.New(0)
		a.Reserve(100)
		now := time.Now()
		a.Compact(now)
		total1, _ := a.Statistics()
		a.Reserve(1000)
		a.Compact(now.Add(time.Minute))
		total2, _ := a.Statistics()
		Expect(total2).To(BeNumerically(">=", total1))
	})

	It("drops a service's snapshot and releases its strings", func() {
		a := arena.New(0)
		snap := model.NewSnapshot()
		snap.Clusters["c1"] = &model.Cluster{ID: "c1", Name: "unique-cluster-name", Status: "green"}
		a.PromoteSnapshot("svc-1", snap)

		a.DropService("svc-1")

		Expect(a.Snapshot("svc-1")).To(BeNil())
		Expect(a.Pool().RefCount("unique-cluster-name")).To(BeEquivalentTo(0))
	})
})
