// Package propiter is the Go-idiomatic replacement for spec.md's C4
// (Property-Collection Iterator). Rather than re-deriving the
// RetrievePropertiesEx/ContinueRetrievePropertiesEx SOAP pagination
// protocol, it drives govmomi's generated vim25/methods bindings for
// those two exact operations directly — the lowest-level, most literal
// translation of spec.md §4.4's "iterator owns only the current
// continuation token, not restartable" contract onto the real wire
// protocol the teacher's go.mod already depends on through govmomi.
package propiter

import (
	"context"

	"github.com/vmware/govmomi/property"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/methods"
	"github.com/vmware/govmomi/vim25/types"

	srverrors "github.com/kubev2v/vcenter-collector/pkg/errors"
)

// Iterator walks the pages of one RetrievePropertiesEx call. The
// continuation token is kept private; callers see only Next/Done.
type Iterator struct {
	client *vim25.Client
	token  string
	done   bool
}

// Init issues RetrievePropertiesEx for specSet and returns both the
// iterator (positioned after the first page) and that first page's
// objects, so a caller with a small result set never has to call Next.
func Init(ctx context.Context, client *vim25.Client, specSet []types.PropertyFilterSpec) (*Iterator, []types.ObjectContent, error) {
	pc := property.DefaultCollector(client)

	req := types.RetrievePropertiesEx{
		This:    pc.Reference(),
		SpecSet: specSet,
		Options: types.RetrieveOptions{},
	}

	res, err := methods.RetrievePropertiesEx(ctx, client, &req)
	if err != nil {
		return nil, nil, srverrors.NewTransportError(client.URL().Host, err)
	}

	it := &Iterator{client: client}
	if res.Returnval == nil {
		it.done = true
		return it, nil, nil
	}
	it.token = res.Returnval.Token
	it.done = it.token == ""
	return it, res.Returnval.Objects, nil
}

// Next fetches the next page via ContinueRetrievePropertiesEx. Returns an
// empty, nil-error result once Done() is already true.
func (it *Iterator) Next(ctx context.Context) ([]types.ObjectContent, error) {
	if it.Done() {
		return nil, nil
	}
	pc := property.DefaultCollector(it.client)
	req := types.ContinueRetrievePropertiesEx{
		This:  pc.Reference(),
		Token: it.token,
	}
	res, err := methods.ContinueRetrievePropertiesEx(ctx, it.client, &req)
	if err != nil {
		return nil, srverrors.NewTransportError(it.client.URL().Host, err)
	}
	it.token = res.Returnval.Token
	it.done = it.token == ""
	return res.Returnval.Objects, nil
}

// Done reports whether the server reported no further continuation token.
func (it *Iterator) Done() bool { return it.done }

// CollectAll drains an Iterator (first page plus every subsequent Next
// page) into one slice — most callers in internal/collector want the
// whole object list for one type rather than hand-written paging loops.
func CollectAll(ctx context.Context, client *vim25.Client, specSet []types.PropertyFilterSpec) ([]types.ObjectContent, error) {
	it, first, err := Init(ctx, client, specSet)
	if err != nil {
		return nil, err
	}
	all := first
	for !it.Done() {
		page, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
	}
	return all, nil
}

// PropValue looks up a single named property out of an ObjectContent's
// PropSet, mirroring spec.md's "property lookup by path within one
// object's property set" helper used throughout C6.
func PropValue(obj types.ObjectContent, name string) (any, bool) {
	for _, p := range obj.PropSet {
		if p.Name == name {
			return p.Val, true
		}
	}
	return nil, false
}
