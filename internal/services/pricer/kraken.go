package pricer

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/valyala/fastjson"

	"github.com/vadiminshakov/krakendca/internal/clients"
	"github.com/vadiminshakov/krakendca/internal/domain"
)

// DefaultKrakenQuoteURL public ticker endpoint.
const DefaultKrakenQuoteURL = clients.DefaultKrakenBaseURL + "/0/public/Ticker"

// TickerURL public ticker URL for a single pair.
func TickerURL(pair domain.Pair) string {
	return DefaultKrakenQuoteURL + "?pair=" + url.QueryEscape(pair.Symbol())
}

// KrakenPricer reads the best bid from the public Ticker endpoint.
type KrakenPricer struct {
	client    *clients.KrakenClient
	quoteURL  string
	resultKey string
	now       func() time.Time
}

// NewKrakenPricer creates a pricer. An empty quoteURL means the public Ticker
// endpoint queried for the pair symbol. resultKey is the key of the pair inside
// the "result" object; empty means the pair symbol (XBTUSD).
func NewKrakenPricer(client *clients.KrakenClient, quoteURL, resultKey string) *KrakenPricer {
	return &KrakenPricer{client: client, quoteURL: quoteURL, resultKey: resultKey, now: time.Now}
}

// GetPrice returns the current best bid for pair.
func (p *KrakenPricer) GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	ticker, err := p.GetTicker(ctx, pair)
	if err != nil {
		return decimal.Zero, err
	}
	return ticker.BestBid, nil
}

// GetTicker fetches the ticker and extracts result[<key>].b[0].
func (p *KrakenPricer) GetTicker(ctx context.Context, pair domain.Pair) (*domain.TickerSnapshot, error) {
	quoteURL := p.quoteURL
	if quoteURL == "" {
		quoteURL = TickerURL(pair)
	}

	resp, err := p.client.Get(ctx, quoteURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch ticker for %s", pair.String())
	}

	result, err := clients.ParseEnvelope(resp)
	if err != nil {
		return nil, err
	}

	key := p.resultKey
	if key == "" {
		key = pair.Symbol()
	}

	bid, err := bestBid(result, key)
	if err != nil {
		return nil, err
	}

	return &domain.TickerSnapshot{Pair: pair, BestBid: bid, Time: p.now()}, nil
}

func bestBid(result *fastjson.Value, key string) (decimal.Decimal, error) {
	field := fmt.Sprintf("result.%s.b[0]", key)

	bids := result.GetArray(key, "b")
	if len(bids) == 0 {
		return decimal.Zero, &domain.MalformedResponseError{Field: field}
	}

	var raw string
	switch bids[0].Type() {
	case fastjson.TypeString:
		raw = string(bids[0].GetStringBytes())
	case fastjson.TypeNumber:
		raw = bids[0].String()
	default:
		return decimal.Zero, &domain.MalformedResponseError{Field: field}
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &domain.MalformedResponseError{Field: field, Err: err}
	}
	if !price.IsPositive() {
		return decimal.Zero, &domain.MalformedResponseError{Field: field, Err: fmt.Errorf("non-positive price %s", raw)}
	}

	return price, nil
}
