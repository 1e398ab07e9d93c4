package tiramisu

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

func TestRequestErrorCarriesBody(t *testing.T) {
	c, srv, _ := newTestClient(t)
	body := `{"currency":["This field is required."]}`
	srv.Fail(http.MethodPost, "api/balance/create/", http.StatusBadRequest, body)

	err := c.BalanceCreate(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRequest))
	assert.Equal(t, body, Detail(err))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, http.StatusBadRequest, e.StatusCode)
	assert.Equal(t, http.MethodPost, e.Method)
	assert.Equal(t, "api/balance/create/", e.Path)
	assert.Contains(t, e.Error(), "returned 400")
}

func TestUnreachableBackend(t *testing.T) {
	c, srv, _ := newTestClient(t)
	srv.Close()

	_, err := c.Transaction(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRequest))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Zero(t, e.StatusCode)
	assert.NotNil(t, e.Unwrap())
}

func TestPostSendsFormFields(t *testing.T) {
	c, srv, _ := newTestClient(t)

	_, err := c.SendInternal(context.Background(), 7, 1, 500, "lunch")
	require.NoError(t, err)

	reqs := srv.RequestsTo(http.MethodPost, "api/transactions/send_internal/")
	require.Len(t, reqs, 1)
	mediaType, _, err := mime.ParseMediaType(reqs[0].Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", mediaType)
	assert.Equal(t, "7", reqs[0].Form.Get("destination_user"))
	assert.Equal(t, "1", reqs[0].Form.Get("currency"))
	assert.Equal(t, "500", reqs[0].Form.Get("amount"))
	assert.Equal(t, "lunch", reqs[0].Form.Get("description"))
	assert.Nil(t, reqs[0].File)
}

func TestGetSendsQueryParameters(t *testing.T) {
	c, srv, _ := newTestClient(t)
	srv.AddListing(1, 5, 100)
	srv.AddListing(2, 6, 200)
	srv.AddListing(3, 7, 300)

	page, err := c.Listings(context.Background(), Pagination{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, int64(2), page.Results[0].ID)
	assert.Equal(t, "200", page.Results[0].PriceSat.String())
	assert.Equal(t, int64(6), page.Results[0].Get("currency").Int())

	reqs := srv.RequestsTo(http.MethodGet, "api/listings/")
	require.Len(t, reqs, 1)
	assert.Equal(t, "1", reqs[0].Query.Get("limit"))
	assert.Equal(t, "1", reqs[0].Query.Get("offset"))
}

func TestNegativeOffsetReadsFromStart(t *testing.T) {
	c, srv, _ := newTestClient(t)
	srv.AddListing(1, 5, 100)
	srv.AddListing(2, 6, 200)

	raw, err := c.Do(context.Background(), http.MethodGet, "api/listings/", Params{"limit": "1", "offset": "-5"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), gjson.GetBytes(raw, "count").Int())
	assert.Equal(t, int64(1), gjson.GetBytes(raw, "results.0.id").Int())
	assert.Equal(t, int64(1), gjson.GetBytes(raw, "results.#").Int())
}

func TestMultipartUpload(t *testing.T) {
	c, srv, _ := newTestClient(t)
	picture := &File{Name: "Cat.PNG", Content: []byte{0x89, 'P', 'N', 'G'}}

	_, err := c.MintNFT(context.Background(), MintNFTParams{Name: "cat", Description: "a cat", Picture: picture})
	require.NoError(t, err)

	reqs := srv.RequestsTo(http.MethodPost, "api/currencies/mint-nft/")
	require.Len(t, reqs, 1)
	r := reqs[0]
	assert.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")
	assert.Equal(t, "cat", r.Form.Get("name"))
	assert.Equal(t, "a cat", r.Form.Get("description"))
	require.NotNil(t, r.File)
	assert.Equal(t, "picture_orig", r.File.Field)
	assert.Equal(t, "Cat.PNG", r.File.Name)
	assert.Equal(t, "image/png", r.File.ContentType)
	assert.Equal(t, picture.Content, r.File.Content)
}

func TestFileContentType(t *testing.T) {
	tests := map[string]string{
		"a.jpg":    "image/jpeg",
		"a.JPEG":   "image/jpeg",
		"a.png":    "image/png",
		"a.gif":    "application/octet-stream",
		"noext":    "application/octet-stream",
		"dir/b.Jp": "application/octet-stream",
	}
	for name, want := range tests {
		assert.Equal(t, want, (&File{Name: name}).ContentType(), name)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))

	f, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, "logo.png", f.Name)
	assert.Equal(t, []byte("png"), f.Content)

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestRequestsCarryRequestID(t *testing.T) {
	c, srv, _ := newTestClient(t)
	_, err := c.Balances(context.Background(), Pagination{})
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, r := range srv.Requests() {
		id := r.Header.Get("X-Request-Id")
		_, err := uuid.FromString(id)
		assert.NoError(t, err, r.Path)
		assert.False(t, seen[id], "request id reused")
		seen[id] = true
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
	}
}

func TestDoReturnsRawBody(t *testing.T) {
	c, srv, _ := newTestClient(t)
	id := srv.AddTransaction()

	raw, err := c.Do(context.Background(), http.MethodGet, "/api/transactions/"+itoa(id), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, id, gjson.GetBytes(raw, "id").Int())
	assert.Equal(t, "pending", gjson.GetBytes(raw, "status").String())

	tx, err := c.Transaction(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "pending", tx.Get("status").String())
	assert.JSONEq(t, string(raw), string(tx.Raw))
}

func TestRateLimitHonoursContext(t *testing.T) {
	c, _, _ := newTestClient(t)
	c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, c.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Assets(ctx, Pagination{})
	assert.True(t, errors.Is(err, ErrRequest))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNonJSONBody(t *testing.T) {
	c, srv, _ := newTestClient(t)
	srv.Fail(http.MethodGet, "api/balances/", http.StatusOK, "<html>maintenance</html>")

	_, err := c.Balances(context.Background(), Pagination{})
	assert.True(t, errors.Is(err, ErrRequest))
	assert.Equal(t, "<html>maintenance</html>", Detail(err))
}
