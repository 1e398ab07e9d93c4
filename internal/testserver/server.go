// Package testserver runs an in-process imitation of the wallet backend for
// tests. Transactions follow scripted status sequences, one step per fetch.
package testserver

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/tidwall/sjson"
)

const (
	Root     = "/walletapp/"
	Username = "alice"
	Password = "secret"
	Token    = "9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b"
)

// Step is one status answer of a transaction.
type Step struct {
	Status      string
	Description string
	// NoInvoice drops invoice_inbound from an inbound_invoice_generated answer.
	NoInvoice bool
}

func Pending() Step {
	return Step{Status: "pending"}
}

func Status(s string) Step {
	return Step{Status: s}
}

func Failed(description string) Step {
	return Step{Status: "error", Description: description}
}

// InvoiceMissing is an inbound_invoice_generated answer without the invoice.
func InvoiceMissing() Step {
	return Step{Status: "inbound_invoice_generated", NoInvoice: true}
}

// Steps turns plain statuses into steps.
func Steps(statuses ...string) []Step {
	steps := make([]Step, len(statuses))
	for i, s := range statuses {
		steps[i] = Status(s)
	}
	return steps
}

type UploadedFile struct {
	Field       string
	Name        string
	ContentType string
	Content     []byte
}

// Request is a request as received by the server. Path is relative to Root.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Query  url.Values
	Form   url.Values
	File   *UploadedFile
}

type failure struct {
	code int
	body string
}

type transaction struct {
	id      int64
	steps   []Step
	fetches int
}

type Server struct {
	*httptest.Server

	mu           sync.Mutex
	router       *mux.Router
	users        map[string]string
	assets       map[int64]string
	balances     []string
	listings     []string
	transactions map[int64]*transaction
	scripts      [][]Step
	failures     map[string]failure
	requests     []Request
	nextID       int64
}

// New starts a server knowing the user alice and the asset SAT with id 1.
func New() *Server {
	s := &Server{
		users:        map[string]string{Username: Password},
		assets:       make(map[int64]string),
		transactions: make(map[int64]*transaction),
		failures:     make(map[string]failure),
		nextID:       100,
	}
	s.AddAsset(1, "SAT")
	s.router = mux.NewRouter()
	s.routes()
	s.Server = httptest.NewServer(s.router)
	return s
}

// RootURL is the endpoint root to hand to the client.
func (s *Server) RootURL() string {
	return s.URL + Root
}

func (s *Server) routes() {
	api := s.router.PathPrefix(Root + "api").Subrouter()
	public := func(path string, h http.HandlerFunc, method string) {
		api.HandleFunc("/"+path, s.record(h)).Methods(method)
	}
	protected := func(path string, h http.HandlerFunc, method string) {
		api.HandleFunc("/"+path, s.record(s.authorized(h))).Methods(method)
	}

	public("user/register/", s.register, http.MethodPost)
	public("token-auth/", s.tokenAuth, http.MethodPost)

	protected("currencies/", s.listAssets, http.MethodGet)
	protected("nfts/", s.emptyPage, http.MethodGet)
	protected("currencies/{id:[0-9]+}", s.asset, http.MethodGet)
	protected("currency/create/", s.createAsset, http.MethodPost)
	protected("currencies/mint/", s.mintAsset, http.MethodPost)
	protected("currencies/mint-nft/", s.createTransaction, http.MethodPost)
	protected("collections/", s.collections, http.MethodGet)

	protected("balance/create/", s.created, http.MethodPost)
	protected("balances/", s.listBalances, http.MethodGet)
	protected("balances-nft/", s.emptyPage, http.MethodGet)

	protected("transactions/", s.listTransactions, http.MethodGet)
	protected("transactions/{id:[0-9]+}", s.transaction, http.MethodGet)
	for _, path := range []string{
		"transactions/send_taro/",
		"transactions/send_btc/",
		"transactions/send_btc_lns/",
		"transactions/send_internal/",
		"transactions/receive_taro/",
		"transactions/receive_btc/",
		"list_asset/",
		"list_nft_asset/",
		"buy_taro_asset/",
		"buy_nft_asset/",
		"sell_taro_asset/",
	} {
		protected(path, s.createTransaction, http.MethodPost)
	}

	protected("listings/", s.listListings, http.MethodGet)
	protected("listings_nfts/", s.emptyPage, http.MethodGet)
	protected("listings_my/", s.listListings, http.MethodGet)
}

// AddAsset adds an asset to the catalogue.
func (s *Server) AddAsset(id int64, acronym string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, _ := sjson.Set("{}", "id", id)
	obj, _ = sjson.Set(obj, "acronym", acronym)
	obj, _ = sjson.Set(obj, "name", acronym)
	obj, _ = sjson.Set(obj, "description", "")
	s.assets[id] = obj
}

// RemoveAsset drops an asset from the catalogue.
func (s *Server) RemoveAsset(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assets, id)
}

func (s *Server) AddBalance(id, currency, amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, _ := sjson.Set("{}", "id", id)
	obj, _ = sjson.Set(obj, "currency", currency)
	obj, _ = sjson.Set(obj, "balance", amount)
	s.balances = append(s.balances, obj)
}

func (s *Server) AddListing(id, currency, priceSat int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, _ := sjson.Set("{}", "id", id)
	obj, _ = sjson.Set(obj, "currency", currency)
	obj, _ = sjson.Set(obj, "price_sat", priceSat)
	s.listings = append(s.listings, obj)
}

// Script queues the status sequence of the next transaction created by a
// mutating request. Without a script a transaction stays pending.
func (s *Server) Script(steps ...Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts = append(s.scripts, steps)
}

// AddTransaction creates a transaction following steps and returns its id.
func (s *Server) AddTransaction(steps ...Step) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newTransaction(steps).id
}

// Fail makes every request to method path answer code with body.
func (s *Server) Fail(method, path string, code int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{code: code, body: body}
}

// Fetches returns how often transaction id was read.
func (s *Server) Fetches(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx, ok := s.transactions[id]; ok {
		return tx.fetches
	}
	return 0
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the requests received for method path.
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// newTransaction must be called with mu held.
func (s *Server) newTransaction(steps []Step) *transaction {
	s.nextID++
	if len(steps) == 0 {
		steps = []Step{Pending()}
	}
	tx := &transaction{id: s.nextID, steps: steps}
	s.transactions[tx.id] = tx
	return tx
}

func (s *Server) record(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := Request{
			Method: r.Method,
			Path:   strings.TrimPrefix(r.URL.Path, Root),
			Header: r.Header.Clone(),
			Query:  r.URL.Query(),
		}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(10 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			rec.Form = url.Values(r.MultipartForm.Value)
			for field, headers := range r.MultipartForm.File {
				f, err := headers[0].Open()
				if err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				content, _ := io.ReadAll(f)
				f.Close()
				rec.File = &UploadedFile{
					Field:       field,
					Name:        headers[0].Filename,
					ContentType: headers[0].Header.Get("Content-Type"),
					Content:     content,
				}
			}
		} else if err := r.ParseForm(); err == nil {
			rec.Form = r.PostForm
		}

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		f, failing := s.failures[r.Method+" "+rec.Path]
		s.mu.Unlock()
		if failing {
			writeJSON(w, f.code, f.body)
			return
		}
		next(w, r)
	}
}

func (s *Server) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		switch {
		case auth == "Token "+Token:
		case strings.HasPrefix(auth, "Basic ") && s.basicOK(auth[len("Basic "):]):
		default:
			writeJSON(w, http.StatusUnauthorized, `{"detail":"Authentication credentials were not provided."}`)
			return
		}
		next(w, r)
	}
}

func (s *Server) basicOK(encoded string) bool {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	user, pass, ok := strings.Cut(string(b), ":")
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, known := s.users[user]
	return known && p == pass
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	user, pass := r.PostForm.Get("username"), r.PostForm.Get("password")
	s.mu.Lock()
	s.users[user] = pass
	s.mu.Unlock()
	body, _ := sjson.Set("{}", "username", user)
	writeJSON(w, http.StatusCreated, body)
}

func (s *Server) tokenAuth(w http.ResponseWriter, r *http.Request) {
	user, pass := r.PostForm.Get("username"), r.PostForm.Get("password")
	s.mu.Lock()
	p, known := s.users[user]
	s.mu.Unlock()
	if !known || p != pass {
		writeJSON(w, http.StatusBadRequest, `{"non_field_errors":["Unable to log in with provided credentials."]}`)
		return
	}
	body, _ := sjson.Set("{}", "token", Token)
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.assets))
	for id := range s.assets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	objs := make([]string, len(ids))
	for i, id := range ids {
		objs[i] = s.assets[id]
	}
	s.mu.Unlock()
	writePage(w, r, objs)
}

func (s *Server) asset(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	s.mu.Lock()
	obj, ok := s.assets[id]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, `{"detail":"Not found."}`)
		return
	}
	writeJSON(w, http.StatusOK, obj)
}

func (s *Server) createAsset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.mu.Unlock()
	s.AddAsset(id, r.FormValue("acronym"))
	s.mu.Lock()
	obj := s.assets[id]
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, obj)
}

// mintAsset creates the asset together with its minting transaction.
func (s *Server) mintAsset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var steps []Step
	if len(s.scripts) > 0 {
		steps, s.scripts = s.scripts[0], s.scripts[1:]
	}
	tx := s.newTransaction(steps)
	s.nextID++
	id := s.nextID
	obj, _ := sjson.Set("{}", "id", id)
	obj, _ = sjson.Set(obj, "acronym", r.FormValue("acronym"))
	obj, _ = sjson.Set(obj, "name", r.FormValue("name"))
	obj, _ = sjson.Set(obj, "description", r.FormValue("description"))
	supply, _ := strconv.ParseInt(r.FormValue("supply"), 10, 64)
	obj, _ = sjson.Set(obj, "supply", supply)
	obj, _ = sjson.Set(obj, "minting_transaction", tx.id)
	s.assets[id] = obj
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, obj)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var steps []Step
	if len(s.scripts) > 0 {
		steps, s.scripts = s.scripts[0], s.scripts[1:]
	}
	tx := s.newTransaction(steps)
	s.mu.Unlock()
	body, _ := sjson.Set("{}", "id", tx.id)
	body, _ = sjson.Set(body, "status", "pending")
	writeJSON(w, http.StatusCreated, body)
}

func (s *Server) transaction(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	s.mu.Lock()
	tx, ok := s.transactions[id]
	if !ok {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, `{"detail":"Not found."}`)
		return
	}
	body := tx.next()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, body)
}

// next answers the current step and advances; the last step repeats.
func (tx *transaction) next() string {
	i := tx.fetches
	if i >= len(tx.steps) {
		i = len(tx.steps) - 1
	}
	tx.fetches++
	return tx.render(tx.steps[i])
}

func (tx *transaction) render(step Step) string {
	body, _ := sjson.Set("{}", "id", tx.id)
	body, _ = sjson.Set(body, "status", step.Status)
	body, _ = sjson.Set(body, "status_description", step.Description)
	if step.Status == "inbound_invoice_generated" && !step.NoInvoice {
		body, _ = sjson.Set(body, "invoice_inbound", InvoiceFor(tx.id))
	}
	return body
}

// InvoiceFor is the invoice the server generates for transaction id.
func InvoiceFor(id int64) string {
	return "taprootassets1qqqsqqspqqzzpinvoice" + strconv.FormatInt(id, 10)
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.transactions))
	for id := range s.transactions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	objs := make([]string, len(ids))
	for i, id := range ids {
		tx := s.transactions[id]
		i0 := tx.fetches
		if i0 >= len(tx.steps) {
			i0 = len(tx.steps) - 1
		}
		objs[i] = tx.render(tx.steps[i0])
	}
	s.mu.Unlock()
	writePage(w, r, objs)
}

func (s *Server) listBalances(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	objs := append([]string(nil), s.balances...)
	s.mu.Unlock()
	writePage(w, r, objs)
}

func (s *Server) listListings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	objs := append([]string(nil), s.listings...)
	s.mu.Unlock()
	writePage(w, r, objs)
}

func (s *Server) emptyPage(w http.ResponseWriter, r *http.Request) {
	writePage(w, r, nil)
}

func (s *Server) collections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, `[]`)
}

func (s *Server) created(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, `{}`)
}

// writePage answers objs in the paginated envelope honouring limit and
// offset.
func writePage(w http.ResponseWriter, r *http.Request, objs []string) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	if offset > len(objs) {
		offset = len(objs)
	}
	end := offset + limit
	if end > len(objs) {
		end = len(objs)
	}
	body, _ := sjson.Set("{}", "count", len(objs))
	body, _ = sjson.SetRaw(body, "next", "null")
	body, _ = sjson.SetRaw(body, "previous", "null")
	body, _ = sjson.SetRaw(body, "results", "["+strings.Join(objs[offset:end], ",")+"]")
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	io.WriteString(w, body)
}
