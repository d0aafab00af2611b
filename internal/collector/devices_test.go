package collector

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vmware/govmomi/vim25/types"

	"github.com/kubev2v/vcenter-collector/internal/model"
)

func unitPtr(u int32) *int32 { return &u }

var _ = Describe("classifyDevices", func() {
	It("keys a NIC by its device key", func() {
		devices := []types.BaseVirtualDevice{
			&types.VirtualE1000{
				VirtualEthernetCard: types.VirtualEthernetCard{
					MacAddress: "00:50:56:aa:bb:cc",
					VirtualDevice: types.VirtualDevice{
						Key:        4000,
						DeviceInfo: &types.Description{Label: "Network adapter 1"},
					},
				},
			},
		}
		out := classifyDevices(devices)
		Expect(out).To(HaveLen(1))
		Expect(out[0].Type).To(Equal(model.DeviceTypeNIC))
		Expect(out[0].Instance).To(Equal("4000"))
		Expect(out[0].Label).To(Equal("Network adapter 1"))
	})

	It("synthesizes a scsi disk instance from its controller's bus number and unit", func() {
		controller := &types.VirtualSCSIController{
			VirtualController: types.VirtualController{
				VirtualDevice: types.VirtualDevice{Key: 1000},
				BusNumber:     0,
			},
		}
		disk := &types.VirtualDisk{
			VirtualDevice: types.VirtualDevice{
				DeviceInfo:    &types.Description{Label: "Hard disk 1"},
				ControllerKey: 1000,
			},
			CapacityInBytes: 0,
		}
		disk.UnitNumber = unitPtr(0)

		out := classifyDevices([]types.BaseVirtualDevice{controller, disk})
		Expect(out).To(HaveLen(1))
		Expect(out[0].Type).To(Equal(model.DeviceTypeDisk))
		Expect(out[0].Instance).To(Equal("scsi0:0"))
	})

	It("falls back to scsi0 when a disk's controller is missing from the device list", func() {
		disk := &types.VirtualDisk{
			VirtualDevice: types.VirtualDevice{ControllerKey: 9999},
		}
		disk.UnitNumber = unitPtr(2)

		out := classifyDevices([]types.BaseVirtualDevice{disk})
		Expect(out).To(HaveLen(1))
		Expect(out[0].Instance).To(Equal("scsi0:2"))
	})
})

var _ = Describe("fileSystemsFromGuestDisk", func() {
	It("converts guest.disk entries, falling back to SizeUnknown for non-positive sizes", func() {
		disks := []types.GuestDiskInfo{
			{DiskPath: "/", Capacity: 1024, FreeSpace: 512},
			{DiskPath: "/boot", Capacity: 0, FreeSpace: -1},
		}
		out := fileSystemsFromGuestDisk(disks)
		Expect(out).To(HaveLen(2))
		Expect(out[0]).To(Equal(model.FileSystem{Path: "/", Capacity: 1024, Free: 512}))
		Expect(out[1].Capacity).To(Equal(model.SizeUnknown))
		Expect(out[1].Free).To(Equal(model.SizeUnknown))
	})

	It("returns nil for a property value of an unexpected type", func() {
		Expect(fileSystemsFromGuestDisk("not-a-disk-list")).To(BeNil())
	})
})
