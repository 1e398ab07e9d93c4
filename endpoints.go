package tiramisu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

var ErrBalanceNotFound = errors.New("no balance for currency")

func (c *Client) get(ctx context.Context, path string, params Params, v interface{}) error {
	raw, err := c.Do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}
	return decode(http.MethodGet, path, raw, v)
}

func (c *Client) post(ctx context.Context, path string, params Params, file *File, v interface{}) error {
	raw, err := c.Do(ctx, http.MethodPost, path, params, file)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return decode(http.MethodPost, path, raw, v)
}

// postTransaction sends a mutating request whose answer identifies a
// transaction.
func (c *Client) postTransaction(ctx context.Context, path string, params Params, file *File) (*Transaction, error) {
	tx := &Transaction{}
	if err := c.post(ctx, path, params, file, tx); err != nil {
		return nil, err
	}
	if tx.ID == 0 {
		return nil, &Error{Type: RequestError, Method: http.MethodPost, Path: path, Body: string(tx.Raw), Message: "response carries no transaction id"}
	}
	c.log.Infof("[Tiramisu] %s created transaction %d (%s)", path, tx.ID, tx.Status)
	return tx, nil
}

func getPage[T any](ctx context.Context, c *Client, path string, p Pagination) (*Page[T], error) {
	page := &Page[T]{}
	if err := c.get(ctx, path, p.params(), page); err != nil {
		return nil, err
	}
	return page, nil
}

func itoa(i int64) string {
	return strconv.FormatInt(i, 10)
}

// Balances

// BalanceCreate opens a balance for currency in the user account.
func (c *Client) BalanceCreate(ctx context.Context, currency int64) error {
	return c.post(ctx, "api/balance/create/", Params{"currency": itoa(currency)}, nil, nil)
}

func (c *Client) Balances(ctx context.Context, p Pagination) (*Page[Balance], error) {
	return getPage[Balance](ctx, c, "api/balances/", p)
}

func (c *Client) BalancesNFT(ctx context.Context, p Pagination) (*Page[Balance], error) {
	return getPage[Balance](ctx, c, "api/balances-nft/", p)
}

// BTCBalance returns the bitcoin balance of the user.
func (c *Client) BTCBalance(ctx context.Context) (*Balance, error) {
	page, err := c.Balances(ctx, Pagination{})
	if err != nil {
		return nil, err
	}
	for i := range page.Results {
		if page.Results[i].Currency == c.btcAssetID {
			return &page.Results[i], nil
		}
	}
	return nil, fmt.Errorf("%w %d", ErrBalanceNotFound, c.btcAssetID)
}

// Assets

// AssetCreate registers an existing Taproot asset under acronym. picture may
// be nil.
func (c *Client) AssetCreate(ctx context.Context, acronym, assetID string, picture *File) (*Asset, error) {
	asset := &Asset{}
	err := c.post(ctx, "api/currency/create/", Params{"acronym": acronym, "asset_id": assetID}, picture, asset)
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// MintAsset submits the minting of a fungible asset and returns the new asset.
func (c *Client) MintAsset(ctx context.Context, p MintParams) (*Asset, error) {
	asset := &Asset{}
	err := c.post(ctx, "api/currencies/mint/", Params{
		"acronym":     p.Acronym,
		"name":        p.Name,
		"description": p.Description,
		"supply":      itoa(p.Supply),
	}, p.Picture, asset)
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// MintNFT submits the minting of a collectible and returns the minting
// transaction.
func (c *Client) MintNFT(ctx context.Context, p MintNFTParams) (*Transaction, error) {
	return c.postTransaction(ctx, "api/currencies/mint-nft/", Params{
		"name":        p.Name,
		"description": p.Description,
	}, p.Picture)
}

func (c *Client) Assets(ctx context.Context, p Pagination) (*Page[Asset], error) {
	return getPage[Asset](ctx, c, "api/currencies/", p)
}

func (c *Client) NFTs(ctx context.Context, p Pagination) (*Page[Asset], error) {
	return getPage[Asset](ctx, c, "api/nfts/", p)
}

func (c *Client) Asset(ctx context.Context, id int64) (*Asset, error) {
	asset := &Asset{}
	if err := c.get(ctx, "api/currencies/"+itoa(id), nil, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// Collections returns the NFT collections as sent by the backend.
func (c *Client) Collections(ctx context.Context) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, "api/collections/", nil, nil)
}

// Transactions

// SendTaprootAsset pays a Taproot asset invoice.
func (c *Client) SendTaprootAsset(ctx context.Context, invoice string) (*Transaction, error) {
	return c.postTransaction(ctx, "api/transactions/send_taro/", Params{"invoice_outbound": invoice}, nil)
}

// SendBTC pays amount satoshis to an on-chain invoice.
func (c *Client) SendBTC(ctx context.Context, invoice string, amount int64) (*Transaction, error) {
	return c.postTransaction(ctx, "api/transactions/send_btc/", Params{
		"invoice_outbound": invoice,
		"amount":           itoa(amount),
	}, nil)
}

// SendBTCLightning pays a Lightning invoice.
func (c *Client) SendBTCLightning(ctx context.Context, invoice string) (*Transaction, error) {
	return c.postTransaction(ctx, "api/transactions/send_btc_lns/", Params{"invoice_outbound": invoice}, nil)
}

// SendInternal moves amount of currency to another user of the platform.
func (c *Client) SendInternal(ctx context.Context, destinationUser, currency, amount int64, description string) (*Transaction, error) {
	return c.postTransaction(ctx, "api/transactions/send_internal/", Params{
		"destination_user": itoa(destinationUser),
		"currency":         itoa(currency),
		"amount":           itoa(amount),
		"description":      description,
	}, nil)
}

// ReceiveTaprootAsset requests an invoice for amount of currency.
func (c *Client) ReceiveTaprootAsset(ctx context.Context, amount, currency int64, description string) (*Transaction, error) {
	return c.postTransaction(ctx, "api/transactions/receive_taro/", Params{
		"amount":      itoa(amount),
		"currency":    itoa(currency),
		"description": description,
	}, nil)
}

// ReceiveBTC requests an invoice for amount satoshis.
func (c *Client) ReceiveBTC(ctx context.Context, amount int64, description string) (*Transaction, error) {
	return c.postTransaction(ctx, "api/transactions/receive_btc/", Params{
		"amount":      itoa(amount),
		"description": description,
	}, nil)
}

func (c *Client) Transactions(ctx context.Context, p Pagination) (*Page[Transaction], error) {
	return getPage[Transaction](ctx, c, "api/transactions/", p)
}

func (c *Client) Transaction(ctx context.Context, id int64) (*Transaction, error) {
	tx := &Transaction{}
	if err := c.get(ctx, "api/transactions/"+itoa(id), nil, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Marketplace

// ListAsset offers a fungible asset on the marketplace.
func (c *Client) ListAsset(ctx context.Context, currency int64) (*Transaction, error) {
	return c.postTransaction(ctx, "api/list_asset/", Params{"currency": itoa(currency)}, nil)
}

// ListNFTAsset offers a collectible for priceSat satoshis.
func (c *Client) ListNFTAsset(ctx context.Context, currency, priceSat int64) (*Transaction, error) {
	return c.postTransaction(ctx, "api/list_nft_asset/", Params{
		"currency":  itoa(currency),
		"price_sat": itoa(priceSat),
	}, nil)
}

func (c *Client) Listings(ctx context.Context, p Pagination) (*Page[Listing], error) {
	return getPage[Listing](ctx, c, "api/listings/", p)
}

func (c *Client) ListingsNFTs(ctx context.Context, p Pagination) (*Page[Listing], error) {
	return getPage[Listing](ctx, c, "api/listings_nfts/", p)
}

func (c *Client) ListingsMy(ctx context.Context, p Pagination) (*Page[Listing], error) {
	return getPage[Listing](ctx, c, "api/listings_my/", p)
}

func (c *Client) BuyTaprootAsset(ctx context.Context, currency, amount int64) (*Transaction, error) {
	return c.postTransaction(ctx, "api/buy_taro_asset/", Params{
		"currency": itoa(currency),
		"amount":   itoa(amount),
	}, nil)
}

func (c *Client) BuyNFT(ctx context.Context, currency int64) (*Transaction, error) {
	return c.postTransaction(ctx, "api/buy_nft_asset/", Params{"currency": itoa(currency)}, nil)
}

func (c *Client) SellTaprootAsset(ctx context.Context, currency, amount int64) (*Transaction, error) {
	return c.postTransaction(ctx, "api/sell_taro_asset/", Params{
		"currency": itoa(currency),
		"amount":   itoa(amount),
	}, nil)
}
