package collector

import (
	"fmt"

	"github.com/vmware/govmomi/vim25/types"

	"github.com/kubev2v/vcenter-collector/internal/model"
)

type controllerInfo struct {
	prefix string
	bus    int32
}

// classifyDevices splits a VM's virtual hardware device list into the NIC
// and VirtualDisk devices spec.md §4.6 step 6 asks for, synthesizing each
// disk's instance key as "{scsi|sata|ide|nvme}{bus}:{unit}" by resolving
// its owning controller, and keying each NIC by its device key (vmware.c
// sets dev->instance = key for network devices, not the MAC).
func classifyDevices(devices []types.BaseVirtualDevice) []model.Device {
	controllers := map[int32]controllerInfo{}
	for _, bd := range devices {
		switch c := bd.(type) {
		case *types.VirtualSCSIController:
			controllers[c.Key] = controllerInfo{"scsi", c.BusNumber}
		case *types.VirtualSATAController:
			controllers[c.Key] = controllerInfo{"sata", c.BusNumber}
		case *types.VirtualIDEController:
			controllers[c.Key] = controllerInfo{"ide", c.BusNumber}
		case *types.VirtualNVMEController:
			controllers[c.Key] = controllerInfo{"nvme", c.BusNumber}
		}
	}

	var out []model.Device
	for _, bd := range devices {
		switch d := bd.(type) {
		case types.BaseVirtualEthernetCard:
			vd := d.GetVirtualEthernetCard()
			label := deviceLabel(vd.DeviceInfo)
			out = append(out, model.Device{
				Type:     model.DeviceTypeNIC,
				Instance: fmt.Sprintf("%d", vd.Key),
				Label:    label,
			})
		case *types.VirtualDisk:
			ci, ok := controllers[d.ControllerKey]
			if !ok {
				ci = controllerInfo{prefix: "scsi", bus: 0}
			}
			unit := int32(0)
			if d.UnitNumber != nil {
				unit = *d.UnitNumber
			}
			out = append(out, model.Device{
				Type:     model.DeviceTypeDisk,
				Instance: fmt.Sprintf("%s%d:%d", ci.prefix, ci.bus, unit),
				Label:    deviceLabel(d.DeviceInfo),
			})
		}
	}
	return out
}

func deviceLabel(desc types.BaseDescription) string {
	if desc == nil {
		return ""
	}
	d := desc.GetDescription()
	if d == nil {
		return ""
	}
	return d.Label
}

// fileSystemsFromGuestDisk converts the guest.disk property (populated by
// VMware Tools) into the FileSystem list spec.md §4.6 step 6 wants.
func fileSystemsFromGuestDisk(v any) []model.FileSystem {
	disks, ok := v.([]types.GuestDiskInfo)
	if !ok {
		return nil
	}
	out := make([]model.FileSystem, 0, len(disks))
	for _, d := range disks {
		capacity := model.SizeUnknown
		free := model.SizeUnknown
		if d.Capacity > 0 {
			capacity = uint64(d.Capacity)
		}
		if d.FreeSpace > 0 {
			free = uint64(d.FreeSpace)
		}
		out = append(out, model.FileSystem{Path: d.DiskPath, Capacity: capacity, Free: free})
	}
	return out
}
