package collector

import (
	"context"

	"go.uber.org/zap"

	"github.com/vmware/govmomi/vim25/soap"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/kubev2v/vcenter-collector/internal/model"
	"github.com/kubev2v/vcenter-collector/internal/vsoap"
	"github.com/kubev2v/vcenter-collector/internal/xmlview"
	srverrors "github.com/kubev2v/vcenter-collector/pkg/errors"
)

// sessionManagerFaultObject is the detail object named by a Login fault
// raised by vCenter's own SessionManager, as opposed to an ESXi host's.
const sessionManagerFaultObject = "SessionManager"

// dialAndLogin implements spec.md §4.6 step 1, shared by the inventory,
// event and performance fetchers: each cycle opens its own short-lived
// session rather than threading one connection across all three stages,
// trading the original's single-session-per-cycle model for the
// scheduler's simpler "one call, one task" dispatch (see DESIGN.md).
func dialAndLogin(ctx context.Context, svc *model.Service, insecure bool, bindAddr string, log *zap.SugaredLogger) (*vsoap.Client, error) {
	client, err := vsoap.Dial(ctx, svc.URL, vsoap.Options{
		Insecure: insecure,
		BindAddr: bindAddr,
	})
	if err != nil {
		return nil, err
	}

	if err := client.Login(ctx, svc.Username, svc.Password); err != nil {
		if retryErr := tryLoginAsVSphere(ctx, client, svc, err, log); retryErr != nil {
			return nil, srverrors.NewAuthError(svc.URL, retryErr)
		}
	}

	about := client.Vim.ServiceContent.About
	svcType := model.ServiceTypeVSphere
	if about.ApiType == "VirtualCenter" {
		svcType = model.ServiceTypeVCenter
	}
	svc.SetTypeOnce(svcType)
	svc.Version = about.Version
	svc.FullName = about.FullName

	return client, nil
}

// tryLoginAsVSphere implements spec.md §4.6 step 1's vCenter/vSphere
// auto-detect retry: a Login fault naming vCenter's own SessionManager,
// raised against a Service whose type has not yet been pinned, means the
// endpoint is a plain ESXi host being probed with vCenter-style
// expectations. Downgrade to vSphere and retry the same credentials once
// before giving up; any other fault, or a Service whose type is already
// pinned, fails straight away. Returns nil once a retried Login succeeds.
func tryLoginAsVSphere(ctx context.Context, client *vsoap.Client, svc *model.Service, loginErr error, log *zap.SugaredLogger) error {
	if !soap.IsSoapFault(loginErr) {
		return loginErr
	}
	fault := soap.ToSoapFault(loginErr)
	bmf, ok := fault.VimFault().(types.BaseMethodFault)
	if !ok {
		return loginErr
	}
	obj, ok := xmlview.ReadFaultDetailObject(bmf)
	if !ok {
		return loginErr
	}
	log.Debugw("auth fault detail", "service", svc.ID, "object", obj)

	if obj != sessionManagerFaultObject || svc.Type() != model.ServiceTypeUnknown {
		return loginErr
	}
	if !svc.SetTypeOnce(model.ServiceTypeVSphere) {
		return loginErr
	}
	return client.Login(ctx, svc.Username, svc.Password)
}
