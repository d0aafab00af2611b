package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/vcenter-collector/internal/model"
)

// identityInterner stands in for arena.StringPool in these tests: it
// returns its input unchanged, so DeepCopy's output can be compared
// directly against the source tree's string values.
type identityInterner struct{}

func (identityInterner) Intern(s string) string { return s }

var _ = Describe("Snapshot.DeepCopy", func() {
	It("copies the hypervisor tree without aliasing the source", func() {
		src := model.NewSnapshot()
		src.Hypervisors["hv-1"] = &model.Hypervisor{
			UUID:           "hv-1",
			ID:             "host-1",
			Props:          map[string]string{"hv.name": "esxi01"},
			DatastoreNames: []string{"ds-1"},
		}

		dst := src.DeepCopy(identityInterner{})

		Expect(dst.Hypervisors).To(HaveKey("hv-1"))
		Expect(dst.Hypervisors["hv-1"]).NotTo(BeIdenticalTo(src.Hypervisors["hv-1"]))
		Expect(dst.Hypervisors["hv-1"].Props["hv.name"]).To(Equal("esxi01"))
	})

	It("resolves DatastoresByName entries to the same copies as the Datastores map", func() {
		src := model.NewSnapshot()
		ds := &model.Datastore{ID: "ds-1", Name: "datastore1"}
		src.Datastores["ds-1"] = ds
		src.DatastoresByName = []*model.Datastore{ds}

		dst := src.DeepCopy(identityInterner{})

		Expect(dst.DatastoresByName).To(HaveLen(1))
		Expect(dst.DatastoresByName[0]).To(BeIdenticalTo(dst.Datastores["ds-1"]))
	})

	It("returns nil for a nil receiver", func() {
		var src *model.Snapshot
		Expect(src.DeepCopy(identityInterner{})).To(BeNil())
	})
})
