package trader

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/krakendca/internal/clients"
	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/services/signer"
)

const (
	testAPIKey = "test-key"
	testSecret = "kQH5HW/8p1uGOVjbgWA7FunAmGO8lsSUXNsu3eow76sz84Q18fWxnyRzBHCd3pd5nE9qa99HAZtuZuj6F1huXg=="
)

type capturedRequest struct {
	method  string
	path    string
	headers http.Header
	body    []byte
}

func orderServer(t *testing.T, status int, answer string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if captured != nil {
			*captured = capturedRequest{method: r.Method, path: r.URL.Path, headers: r.Header.Clone(), body: body}
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(answer))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestKrakenTrader(t *testing.T, srv *httptest.Server) *KrakenTrader {
	t.Helper()
	client, err := clients.NewKrakenClient(testAPIKey, testSecret, srv.URL, time.Second)
	require.NoError(t, err)
	tr, err := NewKrakenTrader(client, "")
	require.NoError(t, err)
	return tr
}

func testOrder() domain.OrderRequest {
	return domain.NewLimitBuy(1_700_000_000_000, "XBTUSD", decimal.RequireFromString("0.002"), decimal.NewFromInt(50000))
}

func TestKrakenTrader_PlaceOrder_Request(t *testing.T) {
	var captured capturedRequest
	srv := orderServer(t, http.StatusOK, `{"error":[],"result":{"descr":{"order":"buy 0.00200000 XBTUSD @ limit 50000.0"},"txid":["OUF4EM-FRGI2-MQMWZD"]}}`, &captured)
	tr := newTestKrakenTrader(t, srv)

	req := testOrder()
	_, err := tr.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, DefaultAddOrderPath, captured.path)
	assert.Equal(t, "application/json", captured.headers.Get("Content-Type"))
	assert.Equal(t, "application/json", captured.headers.Get("Accept"))
	assert.Equal(t, testAPIKey, captured.headers.Get("API-Key"))

	expectedBody, err := req.Body()
	require.NoError(t, err)
	assert.Equal(t, string(expectedBody), string(captured.body), "sent bytes must be the signed bytes")
	assert.Contains(t, string(captured.body), `"ordertype":"limit"`)
	assert.NotContains(t, string(captured.body), `"market"`)

	expectedSig, err := signer.Sign(DefaultAddOrderPath, signer.RawPayload(captured.body), testSecret)
	require.NoError(t, err)
	assert.Equal(t, expectedSig, captured.headers.Get("API-Sign"))
}

func TestKrakenTrader_PlaceOrder_Accepted(t *testing.T) {
	answer := `{"error":[],"result":{"descr":{"order":"buy 0.00200000 XBTUSD @ limit 50000.0"},"txid":["OUF4EM-FRGI2-MQMWZD"]}}`
	srv := orderServer(t, http.StatusOK, answer, nil)
	tr := newTestKrakenTrader(t, srv)

	result, err := tr.PlaceOrder(context.Background(), testOrder())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Accepted())
	assert.Equal(t, []string{"OUF4EM-FRGI2-MQMWZD"}, result.TxIDs)
	assert.Equal(t, "buy 0.00200000 XBTUSD @ limit 50000.0", result.Description)
	assert.Equal(t, answer, result.Raw)
}

func TestKrakenTrader_PlaceOrder_Rejected(t *testing.T) {
	srv := orderServer(t, http.StatusOK, `{"error":["EOrder:Insufficient funds"],"result":{}}`, nil)
	tr := newTestKrakenTrader(t, srv)

	result, err := tr.PlaceOrder(context.Background(), testOrder())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.False(t, result.Accepted())
	assert.Equal(t, domain.OrderStatusRejected, result.Status)
	assert.Equal(t, []string{"EOrder:Insufficient funds"}, result.Errors)
}

func TestKrakenTrader_PlaceOrder_Failures(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		srv := orderServer(t, http.StatusBadGateway, `bad gateway`, nil)
		tr := newTestKrakenTrader(t, srv)

		_, err := tr.PlaceOrder(context.Background(), testOrder())
		var upErr *domain.UpstreamUnavailableError
		require.ErrorAs(t, err, &upErr)
		assert.Equal(t, http.StatusBadGateway, upErr.StatusCode)
	})

	t.Run("server unreachable", func(t *testing.T) {
		srv := orderServer(t, http.StatusOK, `{}`, nil)
		tr := newTestKrakenTrader(t, srv)
		srv.Close()

		_, err := tr.PlaceOrder(context.Background(), testOrder())
		assert.Error(t, err)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := orderServer(t, http.StatusOK, `{"error":[]}`, nil)
		tr := newTestKrakenTrader(t, srv)

		_, err := tr.PlaceOrder(context.Background(), testOrder())
		var malformed *domain.MalformedResponseError
		require.ErrorAs(t, err, &malformed)
	})
}

func TestNewKrakenTrader_RequiresCredentials(t *testing.T) {
	_, err := NewKrakenTrader(clients.NewKrakenPublicClient("", time.Second), "")
	assert.Error(t, err)

	_, err = clients.NewKrakenClient(testAPIKey, "%%%", "", time.Second)
	assert.ErrorIs(t, err, domain.ErrInvalidSecret)
}
