package propiter_test

import (
	"context"
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vmware/govmomi/simulator"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/soap"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/kubev2v/vcenter-collector/internal/propiter"
)

func TestPropIter(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PropIter Suite")
}

var _ = Describe("CollectAll", func() {
	It("pages through every HostSystem the simulator exposes", func() {
		simModel := simulator.VPX()
		simModel.Host = 2
		simModel.Datacenter = 1
		Expect(simModel.Create()).To(Succeed())
		defer simModel.Remove()

		server := simModel.Service.NewServer()
		defer server.Close()

		ctx := context.Background()
		soapClient := soap.NewClient(server.URL, true)
		client, err := vim25.NewClient(ctx, soapClient)
		Expect(err).NotTo(HaveOccurred())

		root := client.ServiceContent.RootFolder
		spec := types.PropertyFilterSpec{
			PropSet: []types.PropertySpec{{Type: "HostSystem", PathSet: []string{"name"}}},
			ObjectSet: []types.ObjectSpec{{
				Obj:  root,
				Skip: types.NewBool(false),
				SelectSet: []types.BaseSelectionSpec{
					&types.TraversalSpec{
						SelectionSpec: types.SelectionSpec{Name: "visitFolders"},
						Type:          "Folder",
						Path:          "childEntity",
						SelectSet: []types.BaseSelectionSpec{
							&types.SelectionSpec{Name: "visitFolders"},
							&types.TraversalSpec{Type: "Datacenter", Path: "hostFolder", SelectSet: []types.BaseSelectionSpec{&types.SelectionSpec{Name: "visitFolders"}}},
							&types.TraversalSpec{Type: "ComputeResource", Path: "host"},
						},
					},
				},
			}},
		}

		objs, err := propiter.CollectAll(ctx, client, []types.PropertyFilterSpec{spec})
		Expect(err).NotTo(HaveOccurred())
		Expect(len(objs)).To(BeNumerically(">=", 2), fmt.Sprintf("expected at least 2 hosts, got %d", len(objs)))
	})
})

var _ = Describe("PropValue", func() {
	It("finds a named property in an object's PropSet", func() {
		obj := types.ObjectContent{
			PropSet: []types.DynamicProperty{{Name: "name", Val: "esxi-01"}},
		}
		v, ok := propiter.PropValue(obj, "name")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("esxi-01"))
	})

	It("reports a miss for an absent property", func() {
		obj := types.ObjectContent{}
		_, ok := propiter.PropValue(obj, "name")
		Expect(ok).To(BeFalse())
	})
})
