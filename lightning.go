package tiramisu

import (
	"strings"

	decodepay "github.com/fiatjaf/ln-decodepay"
)

// DecodeInvoice decodes a BOLT11 Lightning invoice, with or without the
// "lightning:" URI prefix.
func DecodeInvoice(invoice string) (decodepay.Bolt11, error) {
	invoice = strings.ToLower(strings.TrimSpace(invoice))
	invoice = strings.TrimPrefix(invoice, "lightning:")
	return decodepay.Decodepay(invoice)
}
