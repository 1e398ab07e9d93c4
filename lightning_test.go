package tiramisu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// BOLT11 test vector: 2500 uBTC for "1 cup coffee".
const coffeeInvoice = "lnbc2500u1pvjluezpp5qqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqypqdq5xysxxatsyp3k7enxv4jsxqzpuaztrnwngzn3kdzw5hydlzf03qdgm2hdq27cqv3agm2awhz5se903vruatfhq77w3ls4evs3ch9zw97j25emudupq63nyw24cg27h2rspfj9srp"

func TestDecodeInvoice(t *testing.T) {
	for _, in := range []string{
		coffeeInvoice,
		"lightning:" + coffeeInvoice,
		"LIGHTNING:" + strings.ToUpper(coffeeInvoice),
		"  lightning:" + coffeeInvoice + "\n",
	} {
		inv, err := DecodeInvoice(in)
		require.NoError(t, err, in)
		assert.Equal(t, int64(250000000), inv.MSatoshi, in)
		assert.Equal(t, "1 cup coffee", inv.Description, in)
	}
}

func TestDecodeInvoiceRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "lightning:", "LIGHTNING:lnbc1garbage", "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"} {
		_, err := DecodeInvoice(in)
		assert.Error(t, err, in)
	}
}
