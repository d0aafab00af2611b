package collector_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vmware/govmomi/simulator"

	"github.com/kubev2v/vcenter-collector/internal/arena"
	"github.com/kubev2v/vcenter-collector/internal/collector"
	"github.com/kubev2v/vcenter-collector/internal/model"
)

// These tests drive the fetchers against an in-process vCenter double
// (vcsim) rather than hand-written SOAP mocks — the idiomatic way every
// govmomi-based codebase exercises vSphere-talking code, and already a
// transitive part of the govmomi module this repo depends on.
var _ = Describe("Fetcher.RunInventory against a simulated vCenter", func() {
	var (
		simModel *simulator.Model
		server   *simulator.Server
		svc      *model.Service
		ar       *arena.Arena
		ctx      context.Context
		cancel   context.CancelFunc
	)

	BeforeEach(func() {
		simModel = simulator.VPX()
		simModel.Host = 1
		simModel.Datacenter = 1
		simModel.Cluster = 1
		simModel.Machine = 2
		simModel.Datastore = 1

		Expect(simModel.Create()).To(Succeed())
		server = simModel.Service.NewServer()

		user := server.URL.User.Username()
		pass, _ := server.URL.User.Password()
		endpoint := fmt.Sprintf("https://%s/sdk", server.URL.Host)

		svc = model.NewService("svc-1", endpoint, user, pass, true)
		ar = arena.New(0)
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
		server.Close()
		simModel.Remove()
	})

	It("promotes a snapshot with the simulated datacenter's hosts and VMs", func() {
		f := collector.NewFetcher(true, "")
		err := f.RunInventory(ctx, svc, ar)
		Expect(err).NotTo(HaveOccurred())

		snap := ar.Snapshot(svc.ID)
		Expect(snap).NotTo(BeNil())
		Expect(snap.Hypervisors).NotTo(BeEmpty())

		var totalVMs int
		for _, hv := range snap.Hypervisors {
			totalVMs += len(hv.VMs)
		}
		Expect(totalVMs).To(BeNumerically(">", 0))
	})

	It("pins the service type to vcenter once the first cycle succeeds", func() {
		f := collector.NewFetcher(true, "")
		Expect(f.RunInventory(ctx, svc, ar)).To(Succeed())
		Expect(svc.Type()).To(Equal(model.ServiceTypeVCenter))
	})

	It("registers PerfEntity rows for every host and VM discovered this cycle", func() {
		f := collector.NewFetcher(true, "")
		Expect(f.RunInventory(ctx, svc, ar)).To(Succeed())

		snap := ar.Snapshot(svc.ID)
		for _, hv := range snap.Hypervisors {
			_, ok := svc.Perf.Get(model.PerfEntityHostSystem, hv.ID)
			Expect(ok).To(BeTrue(), "expected a PerfEntity for host %s", hv.ID)
		}
	})
})

var _ = Describe("EventFetcher.RunEvents against a simulated vCenter", func() {
	It("seeds last_key from latestEvent on the skip_old path without fetching history", func() {
		m := simulator.VPX()
		m.Host = 1
		m.Datacenter = 1
		Expect(m.Create()).To(Succeed())
		defer m.Remove()
		server := m.Service.NewServer()
		defer server.Close()

		user := server.URL.User.Username()
		pass, _ := server.URL.User.Password()
		endpoint := fmt.Sprintf("https://%s/sdk", server.URL.Host)

		svc := model.NewService("svc-2", endpoint, user, pass, true)
		ar := arena.New(0)
		ctx := context.Background()

		Expect(collector.NewFetcher(true, "").RunInventory(ctx, svc, ar)).To(Succeed())

		ef := collector.NewEventFetcher(ar, true, "")
		Expect(ef.RunEvents(ctx, svc)).To(Succeed())
		Expect(svc.Events.SkipOld).To(BeFalse())
		Expect(svc.Events.Uninit).To(BeFalse())
	})
})
