package trader

import (
	"context"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/vadiminshakov/krakendca/internal/clients"
	"github.com/vadiminshakov/krakendca/internal/domain"
)

// DefaultAddOrderPath private order placement endpoint.
const DefaultAddOrderPath = "/0/private/AddOrder"

// KrakenTrader submits signed orders to the private REST API.
type KrakenTrader struct {
	client    *clients.KrakenClient
	orderPath string
}

// NewKrakenTrader creates a trader. The client must carry API credentials.
func NewKrakenTrader(client *clients.KrakenClient, orderPath string) (*KrakenTrader, error) {
	if client == nil || !client.Authenticated() {
		return nil, errors.New("kraken trader requires an authenticated client")
	}
	if orderPath == "" {
		orderPath = DefaultAddOrderPath
	}
	return &KrakenTrader{client: client, orderPath: orderPath}, nil
}

// PlaceOrder signs req for the order path and POSTs it.
//
// Transport failures and non-2xx answers are returned as errors. An answer with a
// non-empty error array is a rejected order, not an error.
func (t *KrakenTrader) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	resp, err := t.client.PostPrivate(ctx, t.orderPath, req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to submit %s order for %s", req.Side, req.Pair)
	}

	result, err := clients.ParseEnvelope(resp)
	if err != nil {
		if exErr, ok := clients.IsExchangeError(err); ok {
			return &domain.OrderResult{
				Status: domain.OrderStatusRejected,
				Errors: exErr.Messages,
				Raw:    string(resp.Body),
			}, nil
		}
		return nil, err
	}

	return parseAddOrderResult(result, resp.Body), nil
}

// parseAddOrderResult reads {"descr": {"order": "..."}, "txid": ["..."]}.
func parseAddOrderResult(result *fastjson.Value, raw []byte) *domain.OrderResult {
	out := &domain.OrderResult{
		Status:      domain.OrderStatusAccepted,
		Description: string(result.GetStringBytes("descr", "order")),
		Raw:         string(raw),
	}

	for _, id := range result.GetArray("txid") {
		if id.Type() == fastjson.TypeString {
			out.TxIDs = append(out.TxIDs, string(id.GetStringBytes()))
		}
	}

	return out
}
