package tiramisu

import (
	"context"
	"net/http"
)

// wait polls the transaction created by a mutating call.
func (c *Client) wait(ctx context.Context, tx *Transaction, err error, target Status, opts []PollOption) (*Transaction, error) {
	if err != nil {
		return nil, err
	}
	return c.WaitForStatus(ctx, tx.ID, target, opts...)
}

// SendBTCAndWait pays an on-chain invoice and waits until it is paid.
func (c *Client) SendBTCAndWait(ctx context.Context, invoice string, amount int64, opts ...PollOption) (*Transaction, error) {
	tx, err := c.SendBTC(ctx, invoice, amount)
	return c.wait(ctx, tx, err, StatusOutboundInvoicePaid, opts)
}

// SendBTCLightningAndWait pays a Lightning invoice and waits until it is paid.
func (c *Client) SendBTCLightningAndWait(ctx context.Context, invoice string, opts ...PollOption) (*Transaction, error) {
	tx, err := c.SendBTCLightning(ctx, invoice)
	return c.wait(ctx, tx, err, StatusLndInboundInvoicePaid, opts)
}

func (c *Client) SendInternalAndWait(ctx context.Context, destinationUser, currency, amount int64, description string, opts ...PollOption) (*Transaction, error) {
	tx, err := c.SendInternal(ctx, destinationUser, currency, amount, description)
	return c.wait(ctx, tx, err, StatusInternalFinished, opts)
}

// inboundInvoice extracts the invoice of a transaction that reached
// inbound_invoice_generated.
func inboundInvoice(tx *Transaction) (string, error) {
	if tx.InvoiceInbound == "" {
		return "", &Error{
			Type:    RequestError,
			Method:  http.MethodGet,
			Path:    "api/transactions/" + itoa(tx.ID),
			Body:    string(tx.Raw),
			Message: "transaction carries no invoice",
		}
	}
	return tx.InvoiceInbound, nil
}

// ReceiveBTCInvoice requests an invoice for amount satoshis and returns it
// once the backend generated it.
func (c *Client) ReceiveBTCInvoice(ctx context.Context, amount int64, description string, opts ...PollOption) (string, error) {
	tx, err := c.ReceiveBTC(ctx, amount, description)
	tx, err = c.wait(ctx, tx, err, StatusInboundInvoiceGenerated, opts)
	if err != nil {
		return "", err
	}
	return inboundInvoice(tx)
}

// ReceiveTaprootAssetInvoice requests an invoice for amount of currency and
// returns it once the backend generated it.
func (c *Client) ReceiveTaprootAssetInvoice(ctx context.Context, amount, currency int64, description string, opts ...PollOption) (string, error) {
	tx, err := c.ReceiveTaprootAsset(ctx, amount, currency, description)
	tx, err = c.wait(ctx, tx, err, StatusInboundInvoiceGenerated, opts)
	if err != nil {
		return "", err
	}
	return inboundInvoice(tx)
}

// MintAssetAndWait mints a fungible asset, waits for its minting transaction
// and returns the asset as read after minting together with that transaction.
func (c *Client) MintAssetAndWait(ctx context.Context, p MintParams, opts ...PollOption) (*Asset, *Transaction, error) {
	asset, err := c.MintAsset(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	asset, err = c.Asset(ctx, asset.ID)
	if err != nil {
		return nil, nil, err
	}
	if asset.MintingTransaction == nil {
		path := "api/currencies/" + itoa(asset.ID)
		return nil, nil, &Error{Type: RequestError, Method: http.MethodGet, Path: path, Body: string(asset.Raw), Message: "asset carries no minting transaction"}
	}
	tx, err := c.WaitForStatus(ctx, *asset.MintingTransaction, StatusMinted, opts...)
	if err != nil {
		return nil, nil, err
	}
	asset, err = c.Asset(ctx, asset.ID)
	if err != nil {
		return nil, nil, err
	}
	return asset, tx, nil
}

func (c *Client) MintNFTAndWait(ctx context.Context, p MintNFTParams, opts ...PollOption) (*Transaction, error) {
	tx, err := c.MintNFT(ctx, p)
	return c.wait(ctx, tx, err, StatusMinted, opts)
}

func (c *Client) BuyTaprootAssetAndWait(ctx context.Context, currency, amount int64, opts ...PollOption) (*Transaction, error) {
	tx, err := c.BuyTaprootAsset(ctx, currency, amount)
	return c.wait(ctx, tx, err, StatusExchangeFinished, opts)
}

func (c *Client) BuyNFTAndWait(ctx context.Context, currency int64, opts ...PollOption) (*Transaction, error) {
	tx, err := c.BuyNFT(ctx, currency)
	return c.wait(ctx, tx, err, StatusExchangeFinished, opts)
}

func (c *Client) SellTaprootAssetAndWait(ctx context.Context, currency, amount int64, opts ...PollOption) (*Transaction, error) {
	tx, err := c.SellTaprootAsset(ctx, currency, amount)
	return c.wait(ctx, tx, err, StatusExchangeFinished, opts)
}
