// Package xmlview implements spec.md's C3 (XML View) contract, narrowed to
// the two cases govmomi's typed client does not already cover:
//
//  1. ReadFaultString inspects raw response bytes for
//     /Envelope/Body/Fault/faultstring, for parity with spec.md's
//     try_read_value when a caller is holding raw bytes rather than a
//     govmomi soap.Fault.
//  2. ReadFaultDetailObject pulls the "object" field out of a
//     NotAuthenticatedFault so C6's vCenter/vSphere auto-detect (step 1)
//     can compare it against the vCenter SessionManager reference.
//
// Every parse error here is deliberately silenced at warn level and
// logged only at debug — spec.md §9's open question notes the original
// core silences all libxml2 errors globally, masking legitimately broken
// responses; this package keeps that behaviour but emits one debug trace
// per suppressed error instead of swallowing it outright.
package xmlview

import (
	"encoding/xml"
	"io"

	"go.uber.org/zap"

	"github.com/vmware/govmomi/vim25/types"
)

var log = zap.S().Named("xmlview")

// envelope is a minimal structural match for the SOAP fault shape; it
// ignores every element it does not name, which is what makes this
// "permissive" per spec.md §4.3.
type envelope struct {
	Body struct {
		Fault struct {
			FaultString string `xml:"faultstring"`
		} `xml:"Fault"`
	} `xml:"Body"`
}

// ReadFaultString scans raw SOAP response bytes for a faultstring element.
// Returns ok=false (not an error) when none is present — a well-formed,
// successful response looks exactly like this to a caller holding bytes.
func ReadFaultString(body []byte) (faultString string, ok bool) {
	var env envelope
	dec := xml.NewDecoder(newReader(body))
	dec.Strict = false
	if err := dec.Decode(&env); err != nil && err != io.EOF {
		log.Debugw("suppressed xml parse warning while scanning for faultstring", "error", err)
	}
	if env.Body.Fault.FaultString == "" {
		return "", false
	}
	return env.Body.Fault.FaultString, true
}

// ReadFaultDetailObject extracts the managed-object-reference literal
// carried on a NotAuthenticatedFault's "object" field — govmomi has
// already parsed the SOAP fault into typed Go structs by the time C6 sees
// it, so this is a type switch, not XML traversal, but it is the Go
// equivalent of spec.md's "read_node_value" used against a fault detail.
func ReadFaultDetailObject(fault types.BaseMethodFault) (objectValue string, ok bool) {
	naf, isNAF := fault.(*types.NotAuthenticated)
	if !isNAF {
		return "", false
	}
	if naf.Object.Value == "" {
		return "", false
	}
	return naf.Object.Value, true
}

type byteReader struct {
	b []byte
	i int
}

func newReader(b []byte) io.Reader { return &byteReader{b: b} }

func (r *byteReader) Read(p []byte) (int, error) {
	if r.i >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.i:])
	r.i += n
	return n, nil
}
