package tiramisu

import (
	"encoding/json"
	"strconv"

	"github.com/tidwall/gjson"
)

// Status is a transaction status reported by the backend. The set is open:
// values without a constant below are valid and count as pending.
type Status string

const (
	StatusInboundInvoiceGenerated Status = "inbound_invoice_generated"
	StatusOutboundInvoicePaid     Status = "outbound_invoice_paid"
	StatusLndInboundInvoicePaid   Status = "lnd_inbound_invoice_paid"
	StatusInternalFinished        Status = "internal_finished"
	StatusExchangeFinished        Status = "exchange_finished"
	StatusMinted                  Status = "minted"
	StatusError                   Status = "error"
)

var knownStatuses = map[Status]struct{}{
	StatusInboundInvoiceGenerated: {},
	StatusOutboundInvoicePaid:     {},
	StatusLndInboundInvoicePaid:   {},
	StatusInternalFinished:        {},
	StatusExchangeFinished:        {},
	StatusMinted:                  {},
	StatusError:                   {},
}

// Known reports whether s is one of the named statuses.
func (s Status) Known() bool {
	_, ok := knownStatuses[s]
	return ok
}

func (s Status) String() string {
	return string(s)
}

// Transaction is a backend transaction record. Raw holds the complete object
// as received, type specific fields can be read with Get.
type Transaction struct {
	ID                int64           `json:"id"`
	Status            Status          `json:"status"`
	StatusDescription string          `json:"status_description"`
	InvoiceInbound    string          `json:"invoice_inbound,omitempty"`
	InvoiceOutbound   string          `json:"invoice_outbound,omitempty"`
	Description       string          `json:"description,omitempty"`
	Raw               json.RawMessage `json:"-"`
}

func (t *Transaction) UnmarshalJSON(b []byte) error {
	type transaction Transaction
	var tx transaction
	if err := json.Unmarshal(b, &tx); err != nil {
		return err
	}
	*t = Transaction(tx)
	t.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// Get returns the field at path (gjson syntax) of the raw record.
func (t *Transaction) Get(path string) gjson.Result {
	return gjson.GetBytes(t.Raw, path)
}

// Asset is a currency known to the backend, either plain bitcoin (SAT) or a
// Taproot asset.
type Asset struct {
	ID                 int64           `json:"id"`
	Acronym            string          `json:"acronym"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Supply             json.Number     `json:"supply,omitempty"`
	MintingTransaction *int64          `json:"minting_transaction,omitempty"`
	Raw                json.RawMessage `json:"-"`
}

func (a *Asset) UnmarshalJSON(b []byte) error {
	type asset Asset
	var as asset
	if err := json.Unmarshal(b, &as); err != nil {
		return err
	}
	*a = Asset(as)
	a.Raw = append(json.RawMessage(nil), b...)
	return nil
}

func (a *Asset) Get(path string) gjson.Result {
	return gjson.GetBytes(a.Raw, path)
}

type Balance struct {
	ID       int64           `json:"id"`
	Currency int64           `json:"currency"`
	Balance  json.Number     `json:"balance,omitempty"`
	Raw      json.RawMessage `json:"-"`
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	type balance Balance
	var bal balance
	if err := json.Unmarshal(data, &bal); err != nil {
		return err
	}
	*b = Balance(bal)
	b.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (b *Balance) Get(path string) gjson.Result {
	return gjson.GetBytes(b.Raw, path)
}

type Listing struct {
	ID       int64           `json:"id"`
	Currency int64           `json:"currency"`
	PriceSat json.Number     `json:"price_sat,omitempty"`
	Raw      json.RawMessage `json:"-"`
}

func (l *Listing) UnmarshalJSON(b []byte) error {
	type listing Listing
	var li listing
	if err := json.Unmarshal(b, &li); err != nil {
		return err
	}
	*l = Listing(li)
	l.Raw = append(json.RawMessage(nil), b...)
	return nil
}

func (l *Listing) Get(path string) gjson.Result {
	return gjson.GetBytes(l.Raw, path)
}

// Page is the envelope of every listing endpoint.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

const defaultPageLimit = 100

// Pagination selects a window of a listing. The zero value requests the
// first 100 entries.
type Pagination struct {
	Limit  int
	Offset int
}

func (p Pagination) params() Params {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	return Params{
		"limit":  strconv.Itoa(limit),
		"offset": strconv.Itoa(p.Offset),
	}
}

// MintParams describes a fungible Taproot asset to mint.
type MintParams struct {
	Acronym     string
	Name        string
	Description string
	Supply      int64
	Picture     *File
}

// MintNFTParams describes a collectible to mint.
type MintNFTParams struct {
	Name        string
	Description string
	Picture     *File
}
