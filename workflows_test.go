package tiramisu

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/snow884/tiramisu-wallet-client/internal/testserver"
)

func TestWorkflowsWaitForTheirTerminalStatus(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		path   string
		target Status
		run    func(c *Client) (*Transaction, error)
	}{
		{
			name:   "send btc",
			path:   "api/transactions/send_btc/",
			target: StatusOutboundInvoicePaid,
			run: func(c *Client) (*Transaction, error) {
				return c.SendBTCAndWait(ctx, "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", 1000)
			},
		},
		{
			name:   "send lightning",
			path:   "api/transactions/send_btc_lns/",
			target: StatusLndInboundInvoicePaid,
			run: func(c *Client) (*Transaction, error) {
				return c.SendBTCLightningAndWait(ctx, "lntb10u1p0example")
			},
		},
		{
			name:   "send internal",
			path:   "api/transactions/send_internal/",
			target: StatusInternalFinished,
			run: func(c *Client) (*Transaction, error) {
				return c.SendInternalAndWait(ctx, 7, 1, 500, "lunch")
			},
		},
		{
			name:   "mint nft",
			path:   "api/currencies/mint-nft/",
			target: StatusMinted,
			run: func(c *Client) (*Transaction, error) {
				return c.MintNFTAndWait(ctx, MintNFTParams{Name: "cat", Description: "a cat", Picture: &File{Name: "cat.png", Content: []byte("png")}})
			},
		},
		{
			name:   "buy asset",
			path:   "api/buy_taro_asset/",
			target: StatusExchangeFinished,
			run: func(c *Client) (*Transaction, error) {
				return c.BuyTaprootAssetAndWait(ctx, 5, 10)
			},
		},
		{
			name:   "buy nft",
			path:   "api/buy_nft_asset/",
			target: StatusExchangeFinished,
			run: func(c *Client) (*Transaction, error) {
				return c.BuyNFTAndWait(ctx, 6)
			},
		},
		{
			name:   "sell asset",
			path:   "api/sell_taro_asset/",
			target: StatusExchangeFinished,
			run: func(c *Client) (*Transaction, error) {
				return c.SellTaprootAssetAndWait(ctx, 5, 10)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv, _ := newTestClient(t)
			srv.Script(testserver.Pending(), testserver.Status(string(tt.target)))

			tx, err := tt.run(c)
			require.NoError(t, err)
			assert.Equal(t, tt.target, tx.Status)
			assert.Equal(t, 2, srv.Fetches(tx.ID))
			assert.Len(t, srv.RequestsTo(http.MethodPost, tt.path), 1)
		})
	}
}

func TestSendBTCAndWaitSendsInvoiceAndAmount(t *testing.T) {
	c, srv, _ := newTestClient(t)
	srv.Script(testserver.Pending(), testserver.Status("outbound_invoice_paid"))

	tx, err := c.SendBTCAndWait(context.Background(), "tb1qexample", 1000)
	require.NoError(t, err)
	assert.Equal(t, StatusOutboundInvoicePaid, tx.Status)
	assert.Equal(t, 2, srv.Fetches(tx.ID))

	reqs := srv.RequestsTo(http.MethodPost, "api/transactions/send_btc/")
	require.Len(t, reqs, 1)
	assert.Equal(t, "tb1qexample", reqs[0].Form.Get("invoice_outbound"))
	assert.Equal(t, "1000", reqs[0].Form.Get("amount"))
}

func TestWorkflowRequestErrorSkipsPolling(t *testing.T) {
	c, srv, _ := newTestClient(t)
	srv.Fail(http.MethodPost, "api/transactions/send_btc/", http.StatusBadRequest, `{"amount":["Ensure this value is greater than or equal to 1."]}`)

	tx, err := c.SendBTCAndWait(context.Background(), "tb1qexample", 0)
	assert.Nil(t, tx)
	assert.True(t, errors.Is(err, ErrRequest))
	assert.Equal(t, `{"amount":["Ensure this value is greater than or equal to 1."]}`, Detail(err))
	assert.Empty(t, srv.RequestsTo(http.MethodGet, "api/transactions/101"))
}

func TestMintNFTAndWaitReportsBackendError(t *testing.T) {
	c, srv, _ := newTestClient(t)
	srv.Script(testserver.Failed("insufficient supply"))

	tx, err := c.MintNFTAndWait(context.Background(), MintNFTParams{Name: "cat", Picture: &File{Name: "cat.jpg", Content: []byte("jpg")}})
	assert.Nil(t, tx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransaction))
	assert.Equal(t, "insufficient supply", Detail(err))
}

func TestMintAssetAndWait(t *testing.T) {
	c, srv, _ := newTestClient(t)
	srv.Script(testserver.Pending(), testserver.Pending(), testserver.Status("minted"))

	asset, tx, err := c.MintAssetAndWait(context.Background(), MintParams{
		Acronym:     "TARO",
		Name:        "Taro",
		Description: "test asset",
		Supply:      21000,
		Picture:     &File{Name: "taro.jpeg", Content: []byte{0xff, 0xd8}},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusMinted, tx.Status)
	assert.Equal(t, "TARO", asset.Acronym)
	require.NotNil(t, asset.MintingTransaction)
	assert.Equal(t, tx.ID, *asset.MintingTransaction)
	assert.Equal(t, "21000", asset.Supply.String())
	assert.Equal(t, 3, srv.Fetches(tx.ID))

	reqs := srv.RequestsTo(http.MethodPost, "api/currencies/mint/")
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].File)
	assert.Equal(t, "image/jpeg", reqs[0].File.ContentType)
	assert.Equal(t, "TARO", reqs[0].Form.Get("acronym"))
	assert.Equal(t, "21000", reqs[0].Form.Get("supply"))
}

func TestMintAssetAndWaitFails(t *testing.T) {
	c, srv, _ := newTestClient(t)
	srv.Script(testserver.Pending(), testserver.Failed("insufficient supply"))

	asset, tx, err := c.MintAssetAndWait(context.Background(), MintParams{Acronym: "TARO", Name: "Taro", Supply: 1})
	assert.Nil(t, asset)
	assert.Nil(t, tx)
	assert.True(t, errors.Is(err, ErrTransaction))
	assert.Equal(t, "insufficient supply", Detail(err))
}

func TestReceiveInvoices(t *testing.T) {
	ctx := context.Background()
	c, srv, _ := newTestClient(t)

	srv.Script(testserver.Pending(), testserver.Status("inbound_invoice_generated"))
	invoice, err := c.ReceiveBTCInvoice(ctx, 2500, "coffee")
	require.NoError(t, err)

	page, err := c.Transactions(ctx, Pagination{})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, testserver.InvoiceFor(page.Results[0].ID), invoice)

	reqs := srv.RequestsTo(http.MethodPost, "api/transactions/receive_btc/")
	require.Len(t, reqs, 1)
	assert.Equal(t, "2500", reqs[0].Form.Get("amount"))
	assert.Equal(t, "coffee", reqs[0].Form.Get("description"))

	srv.Script(testserver.Status("inbound_invoice_generated"))
	invoice, err = c.ReceiveTaprootAssetInvoice(ctx, 10, 5, "")
	require.NoError(t, err)
	assert.Contains(t, invoice, "taprootassets1")

	srv.Script(testserver.Failed("node offline"))
	invoice, err = c.ReceiveBTCInvoice(ctx, 1, "")
	assert.Empty(t, invoice)
	assert.Equal(t, "node offline", Detail(err))
}

func TestReceiveInvoiceMissingFromTransaction(t *testing.T) {
	ctx := context.Background()
	c, srv, _ := newTestClient(t)

	srv.Script(testserver.Pending(), testserver.InvoiceMissing())
	invoice, err := c.ReceiveBTCInvoice(ctx, 2500, "coffee")
	assert.Empty(t, invoice)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRequest))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "inbound_invoice_generated", gjson.Get(e.Body, "status").String())
	assert.False(t, gjson.Get(e.Body, "invoice_inbound").Exists())
	assert.Equal(t, e.Body, Detail(err))

	srv.Script(testserver.InvoiceMissing())
	invoice, err = c.ReceiveTaprootAssetInvoice(ctx, 10, 5, "")
	assert.Empty(t, invoice)
	assert.True(t, errors.Is(err, ErrRequest))
}
