package xmlview_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vmware/govmomi/vim25/types"

	"github.com/kubev2v/vcenter-collector/internal/xmlview"
)

func TestXMLView(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "XMLView Suite")
}

const soapFault = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <soapenv:Fault>
      <faultcode>ServerFaultCode</faultcode>
      <faultstring>Permission to perform this operation was denied.</faultstring>
    </soapenv:Fault>
  </soapenv:Body>
</soapenv:Envelope>`

const soapSuccess = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <RetrievePropertiesExResponse/>
  </soapenv:Body>
</soapenv:Envelope>`

var _ = Describe("ReadFaultString", func() {
	It("extracts the faultstring from a SOAP fault envelope", func() {
		s, ok := xmlview.ReadFaultString([]byte(soapFault))
		Expect(ok).To(BeTrue())
		Expect(s).To(Equal("Permission to perform this operation was denied."))
	})

	It("reports no fault for a well-formed, successful response", func() {
		_, ok := xmlview.ReadFaultString([]byte(soapSuccess))
		Expect(ok).To(BeFalse())
	})

	It("does not error out on malformed bytes, just reports no fault", func() {
		_, ok := xmlview.ReadFaultString([]byte("not xml at all"))
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("ReadFaultDetailObject", func() {
	It("extracts the object value from a NotAuthenticated fault", func() {
		fault := &types.NotAuthenticated{
			Object: types.ManagedObjectReference{Type: "SessionManager", Value: "SessionManager"},
		}
		v, ok := xmlview.ReadFaultDetailObject(fault)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("SessionManager"))
	})

	It("returns false for any other fault type", func() {
		fault := &types.InvalidLogin{}
		_, ok := xmlview.ReadFaultDetailObject(fault)
		Expect(ok).To(BeFalse())
	})
})
