package scheduler_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/vcenter-collector/internal/arena"
	"github.com/kubev2v/vcenter-collector/internal/config"
	"github.com/kubev2v/vcenter-collector/internal/model"
	"github.com/kubev2v/vcenter-collector/internal/scheduler"
)

type fakeRunner struct {
	inventoryCalls chan string
	perfCalls      chan string
	eventCalls     chan string
	inventoryErr   error
}

func (f *fakeRunner) RunInventory(_ context.Context, svc *model.Service, _ *arena.Arena) error {
	f.inventoryCalls <- svc.ID
	return f.inventoryErr
}

func (f *fakeRunner) RunPerf(_ context.Context, svc *model.Service, _ *arena.Arena) error {
	f.perfCalls <- svc.ID
	return nil
}

func (f *fakeRunner) RunEvents(_ context.Context, svc *model.Service) error {
	f.eventCalls <- svc.ID
	return nil
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		inventoryCalls: make(chan string, 16),
		perfCalls:      make(chan string, 16),
		eventCalls:     make(chan string, 16),
	}
}

func testConfig() config.Scheduler {
	return config.Scheduler{
		InventoryPeriod: 10 * time.Millisecond,
		PerfPeriod:      10 * time.Millisecond,
		ServiceTTL:      time.Hour,
		CompactPeriod:   24 * time.Hour,
		RequestTimeout:  time.Second,
		BackoffInitial:  20 * time.Millisecond,
		BackoffMax:      100 * time.Millisecond,
	}
}

var _ = Describe("Scheduler", func() {
	var (
		a    *arena.Arena
		run  *fakeRunner
		sch  *scheduler.Scheduler
		ctx  context.Context
		stop context.CancelFunc
	)

	BeforeEach(func() {
		a = arena.New(0)
		run = newFakeRunner()
		sch = scheduler.New(a, testConfig(), run, run, run)
		ctx, stop = context.WithCancel(context.Background())
		go sch.Run(ctx)
	})

	AfterEach(func() {
		stop()
		sch.Close()
	})

	It("runs an inventory cycle for a newly registered service", func() {
		svc := model.NewService("svc-1", "https://vcenter.example/sdk", "u", "p", true)
		sch.Register(svc)

		Eventually(run.inventoryCalls, time.Second).Should(Receive(Equal("svc-1")))
	})

	It("runs an event tail right after a successful inventory cycle", func() {
		svc := model.NewService("svc-1", "https://vcenter.example/sdk", "u", "p", true)
		sch.Register(svc)

		Eventually(run.inventoryCalls, time.Second).Should(Receive(Equal("svc-1")))
		Eventually(run.eventCalls, time.Second).Should(Receive(Equal("svc-1")))
	})

	It("schedules a performance cycle once the service is ready", func() {
		svc := model.NewService("svc-1", "https://vcenter.example/sdk", "u", "p", true)
		sch.Register(svc)

		Eventually(run.inventoryCalls, time.Second).Should(Receive())
		Eventually(run.perfCalls, 2*time.Second).Should(Receive(Equal("svc-1")))
	})

	It("backs off a service whose inventory cycle keeps failing", func() {
		run.inventoryErr = context.DeadlineExceeded
		svc := model.NewService("svc-1", "https://vcenter.example/sdk", "u", "p", true)
		sch.Register(svc)

		Eventually(run.inventoryCalls, time.Second).Should(Receive())
		first := time.Now()
		Eventually(run.inventoryCalls, time.Second).Should(Receive())
		Expect(time.Since(first)).To(BeNumerically(">=", testConfig().BackoffInitial/2))
		Expect(svc.HasState(model.StateFailed)).To(BeTrue())
	})
})
