package collector

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vmware/govmomi/vim25/types"
)

var _ = Describe("stringifyProp", func() {
	It("passes strings through unchanged", func() {
		Expect(stringifyProp("poweredOn")).To(Equal("poweredOn"))
	})

	It("formats booleans and integers the way vmware.c's property array expects", func() {
		Expect(stringifyProp(true)).To(Equal("true"))
		Expect(stringifyProp(int32(4))).To(Equal("4"))
		Expect(stringifyProp(int64(-1))).To(Equal("-1"))
	})

	It("renders a managed object reference by its server-side value", func() {
		ref := types.ManagedObjectReference{Type: "Datastore", Value: "datastore-12"}
		Expect(stringifyProp(ref)).To(Equal("datastore-12"))
	})

	It("returns empty string for nil", func() {
		Expect(stringifyProp(nil)).To(Equal(""))
	})

	It("extracts the rollup health state label from HostSystemHealthInfo", func() {
		info := &types.HostSystemHealthInfo{
			NumericSensorInfo: []types.HostNumericSensorInfo{
				{Name: "CPU Sensor", HealthState: &types.ElementDescription{Description: types.Description{Label: "ignored"}}},
				{Name: sensorHealthStateName, HealthState: &types.ElementDescription{Description: types.Description{Label: "Green"}}},
			},
		}
		Expect(stringifyProp(info)).To(Equal("Green"))
	})

	It("returns empty string when the rollup sensor is absent", func() {
		info := &types.HostSystemHealthInfo{}
		Expect(healthRollupState(info)).To(Equal(""))
	})
})
