package collector

import "github.com/vmware/govmomi/vim25/types"

// The selection specs below reproduce, name for name, the traversal table
// vmware.c builds once in vmware_service_get_*_data() to walk from the
// root folder down to every HostSystem/VirtualMachine/Datastore without
// fetching whole subtrees the collector does not need (folders nested
// inside folders, templates, etc. are skipped by never naming a
// traversal spec that would recurse into them).
const (
	travVisitFolders = "visitFolders"
	travDCToHF       = "dcToHf"
	travDCToVMF      = "dcToVmf"
	travDCToDS       = "dcToDs"
	travCRToH        = "crToH"
	travCRToRP       = "crToRp"
	travHToVM        = "hToVm"
	travRPToVM       = "rpToVm"
	travRPToRP       = "rpToRp"
)

// inventoryTraversal builds the full recursive traversal: a folder walk
// plus the fixed child-type hops vmware.c's table names. It is shared by
// every object-type-specific PropertyFilterSpec below so that one
// traversal definition serves HostSystem, VirtualMachine, Datastore and
// ClusterComputeResource collection alike.
func inventoryTraversal() []types.BaseSelectionSpec {
	visitFolders := &types.TraversalSpec{
		SelectionSpec: types.SelectionSpec{Name: travVisitFolders},
		Type:          "Folder",
		Path:          "childEntity",
		SelectSet: []types.BaseSelectionSpec{
			&types.SelectionSpec{Name: travVisitFolders},
			&types.SelectionSpec{Name: travDCToHF},
			&types.SelectionSpec{Name: travDCToVMF},
			&types.SelectionSpec{Name: travDCToDS},
			&types.SelectionSpec{Name: travCRToH},
			&types.SelectionSpec{Name: travCRToRP},
		},
	}
	dcToHF := &types.TraversalSpec{
		SelectionSpec: types.SelectionSpec{Name: travDCToHF},
		Type:          "Datacenter",
		Path:          "hostFolder",
		SelectSet:     []types.BaseSelectionSpec{&types.SelectionSpec{Name: travVisitFolders}},
	}
	dcToVMF := &types.TraversalSpec{
		SelectionSpec: types.SelectionSpec{Name: travDCToVMF},
		Type:          "Datacenter",
		Path:          "vmFolder",
		SelectSet:     []types.BaseSelectionSpec{&types.SelectionSpec{Name: travVisitFolders}},
	}
	dcToDS := &types.TraversalSpec{
		SelectionSpec: types.SelectionSpec{Name: travDCToDS},
		Type:          "Datacenter",
		Path:          "datastore",
	}
	crToH := &types.TraversalSpec{
		SelectionSpec: types.SelectionSpec{Name: travCRToH},
		Type:          "ComputeResource",
		Path:          "host",
	}
	crToRP := &types.TraversalSpec{
		SelectionSpec: types.SelectionSpec{Name: travCRToRP},
		Type:          "ComputeResource",
		Path:          "resourcePool",
		SelectSet:     []types.BaseSelectionSpec{&types.SelectionSpec{Name: travRPToRP}},
	}
	hToVM := &types.TraversalSpec{
		SelectionSpec: types.SelectionSpec{Name: travHToVM},
		Type:          "HostSystem",
		Path:          "vm",
	}
	rpToVM := &types.TraversalSpec{
		SelectionSpec: types.SelectionSpec{Name: travRPToVM},
		Type:          "ResourcePool",
		Path:          "vm",
	}
	rpToRP := &types.TraversalSpec{
		SelectionSpec: types.SelectionSpec{Name: travRPToRP},
		Type:          "ResourcePool",
		Path:          "resourcePool",
		SelectSet:     []types.BaseSelectionSpec{&types.SelectionSpec{Name: travRPToRP}},
	}

	return []types.BaseSelectionSpec{
		visitFolders, dcToHF, dcToVMF, dcToDS, crToH, crToRP, hToVM, rpToVM, rpToRP,
	}
}

// propertyFilterSpec builds a single-type PropertyFilterSpec rooted at
// root (normally ServiceContent.RootFolder), asking for propsToFetch on
// every reachable object of objType.
func propertyFilterSpec(root types.ManagedObjectReference, objType string, propsToFetch []string) types.PropertyFilterSpec {
	return types.PropertyFilterSpec{
		PropSet: []types.PropertySpec{{
			Type:    objType,
			PathSet: propsToFetch,
		}},
		ObjectSet: []types.ObjectSpec{{
			Obj:       root,
			Skip:      types.NewBool(false),
			SelectSet: inventoryTraversal(),
		}},
	}
}
