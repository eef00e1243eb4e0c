package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

type staticTicker struct {
	snapshot *domain.TickerSnapshot
}

func (s staticTicker) LastTicker() *domain.TickerSnapshot { return s.snapshot }

type staticTrades struct {
	entries []domain.TradeRecordEntry
	err     error
}

func (s staticTrades) RecordsAfter(index uint64) ([]domain.TradeRecordEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.TradeRecordEntry, 0)
	for _, e := range s.entries {
		if e.Index > index {
			out = append(out, e)
		}
	}
	return out, nil
}

var (
	xbtusd    = domain.Pair{From: "XBT", To: "USD"}
	tradeTime = time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
)

func journal() staticTrades {
	rec := domain.TradeRecord{
		ID: "a", Status: domain.TradeRecordPending, Nonce: 1, Pair: "XBTUSD", Side: domain.SideBuy,
		Volume: decimal.RequireFromString("0.002"), Price: decimal.NewFromInt(50000), Time: tradeTime,
	}
	done := rec
	done.Status = domain.TradeRecordDone
	done.TxIDs = []string{"OABC-1"}

	rejected := rec
	rejected.ID = "b"
	rejected.Nonce = 2
	rejected.Status = domain.TradeRecordRejected

	return staticTrades{entries: []domain.TradeRecordEntry{
		{Index: 1, Record: rec},
		{Index: 2, Record: done},
		{Index: 3, Record: rejected},
	}}
}

func newTestServer(ticker *domain.TickerSnapshot, trades tradeRecordReader) *httptest.Server {
	s := NewServer("", xbtusd, staticTicker{snapshot: ticker}, trades, zap.NewNop())
	return httptest.NewServer(s.routes())
}

func TestIndex(t *testing.T) {
	ts := newTestServer(&domain.TickerSnapshot{Pair: xbtusd, BestBid: decimal.RequireFromString("65000.1"), Time: tradeTime}, journal())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readAll(t, resp)
	assert.Contains(t, body, "pair: XBT_USD")
	assert.Contains(t, body, "best bid: 65000.1")
	assert.Contains(t, body, "trades: 2 (done 1, rejected 1, failed 0, pending 0)")
}

func TestIndexUnknownPath(t *testing.T) {
	ts := newTestServer(nil, journal())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPrice(t *testing.T) {
	ts := newTestServer(&domain.TickerSnapshot{Pair: xbtusd, BestBid: decimal.RequireFromString("65000.1"), Time: tradeTime}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/price")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got domain.TickerSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "65000.1", got.BestBid.String())
	assert.Equal(t, xbtusd, got.Pair)
}

func TestPriceNotPolledYet(t *testing.T) {
	ts := newTestServer(nil, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/price")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestTrades(t *testing.T) {
	ts := newTestServer(nil, journal())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/trades")
	require.NoError(t, err)
	defer resp.Body.Close()

	var records []domain.TradeRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	require.Len(t, records, 2)
	assert.Equal(t, domain.TradeRecordDone, records[0].Status)
	assert.Equal(t, []string{"OABC-1"}, records[0].TxIDs)
	assert.Equal(t, domain.TradeRecordRejected, records[1].Status)
}

func TestTradesJournalError(t *testing.T) {
	ts := newTestServer(nil, staticTrades{err: errors.New("wal corrupted")})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/trades")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestTradeStream(t *testing.T) {
	ts := newTestServer(nil, journal())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/trades/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var data []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() && len(data) < 3 {
		if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
	require.Len(t, data, 3)

	var last domain.TradeRecord
	require.NoError(t, json.Unmarshal([]byte(data[2]), &last))
	assert.Equal(t, "b", last.ID)
	assert.Equal(t, domain.TradeRecordRejected, last.Status)
}

func TestTradeStreamWithoutJournal(t *testing.T) {
	ts := newTestServer(nil, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/trades/stream")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	var b strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	require.NoError(t, scanner.Err())
	return b.String()
}
