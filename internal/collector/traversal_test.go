package collector

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vmware/govmomi/vim25/types"
)

var _ = Describe("inventoryTraversal", func() {
	It("names all nine fixed traversal specs", func() {
		specs := inventoryTraversal()
		Expect(specs).To(HaveLen(9))

		names := make([]string, len(specs))
		for i, s := range specs {
			ts, ok := s.(*types.TraversalSpec)
			Expect(ok).To(BeTrue())
			names[i] = ts.Name
		}
		Expect(names).To(ConsistOf(
			travVisitFolders, travDCToHF, travDCToVMF, travDCToDS,
			travCRToH, travCRToRP, travHToVM, travRPToVM, travRPToRP,
		))
	})

	It("recurses folders into itself, the three datacenter and the two compute-resource child traversals", func() {
		specs := inventoryTraversal()
		var visitFolders *types.TraversalSpec
		for _, s := range specs {
			if ts := s.(*types.TraversalSpec); ts.Name == travVisitFolders {
				visitFolders = ts
			}
		}
		Expect(visitFolders).NotTo(BeNil())
		Expect(visitFolders.Type).To(Equal("Folder"))
		Expect(visitFolders.Path).To(Equal("childEntity"))
		Expect(visitFolders.SelectSet).To(HaveLen(6))
	})

	It("walks resource pools recursively via rpToRp", func() {
		specs := inventoryTraversal()
		var rpToRP *types.TraversalSpec
		for _, s := range specs {
			if ts := s.(*types.TraversalSpec); ts.Name == travRPToRP {
				rpToRP = ts
			}
		}
		Expect(rpToRP).NotTo(BeNil())
		Expect(rpToRP.Type).To(Equal("ResourcePool"))
		Expect(rpToRP.Path).To(Equal("resourcePool"))
		Expect(rpToRP.SelectSet).To(HaveLen(1))
	})
})

var _ = Describe("propertyFilterSpec", func() {
	It("roots the object set at the given managed object with the full traversal attached", func() {
		root := types.ManagedObjectReference{Type: "Folder", Value: "group-d1"}
		spec := propertyFilterSpec(root, "HostSystem", []string{"name", "runtime.connectionState"})

		Expect(spec.PropSet).To(HaveLen(1))
		Expect(spec.PropSet[0].Type).To(Equal("HostSystem"))
		Expect(spec.PropSet[0].PathSet).To(Equal([]string{"name", "runtime.connectionState"}))

		Expect(spec.ObjectSet).To(HaveLen(1))
		Expect(spec.ObjectSet[0].Obj).To(Equal(root))
		Expect(spec.ObjectSet[0].SelectSet).To(HaveLen(9))
	})
})
