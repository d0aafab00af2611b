package collector

import (
	"fmt"
	"strconv"

	"github.com/vmware/govmomi/vim25/types"
)

// stringifyProp renders a property collector leaf value as the text form
// stored in Hypervisor.Props/VirtualMachine.Props — vmware.c stores every
// collected property as text regardless of its vSphere wire type, and
// callers of C11 expect the same uniform representation.
func stringifyProp(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case types.ManagedObjectReference:
		return x.Value
	case *types.HostSystemHealthInfo:
		return healthRollupState(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// healthRollupState extracts the "VMware Rollup Health State" numeric
// sensor's label out of a HostSystemHealthInfo — the one property on
// vmware.c's hv_propmap whose value isn't already a scalar.
func healthRollupState(info *types.HostSystemHealthInfo) string {
	if info == nil {
		return ""
	}
	for _, sensor := range info.NumericSensorInfo {
		if sensor.Name != sensorHealthStateName {
			continue
		}
		if sensor.HealthState != nil {
			return sensor.HealthState.Label
		}
	}
	return ""
}
