package clients

import (
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

// ParseEnvelope validates the {"error": [...], "result": {...}} envelope every
// Kraken endpoint answers with and returns the result object.
//
// Non-2xx status yields *domain.UpstreamUnavailableError, a non-empty error array
// yields *domain.ExchangeError and a body that is not an envelope yields
// *domain.MalformedResponseError.
func ParseEnvelope(resp *Response) (*fastjson.Value, error) {
	if !resp.OK() {
		return nil, &domain.UpstreamUnavailableError{StatusCode: resp.StatusCode}
	}

	v, err := fastjson.ParseBytes(resp.Body)
	if err != nil {
		return nil, &domain.MalformedResponseError{Field: "body", Err: err}
	}

	if messages := errorMessages(v); len(messages) > 0 {
		return nil, &domain.ExchangeError{Messages: messages}
	}

	result := v.Get("result")
	if result == nil || result.Type() != fastjson.TypeObject {
		return nil, &domain.MalformedResponseError{Field: "result"}
	}

	return result, nil
}

func errorMessages(v *fastjson.Value) []string {
	field := v.Get("error")
	if field == nil {
		return nil
	}

	switch field.Type() {
	case fastjson.TypeArray:
		items, _ := field.Array()
		messages := make([]string, 0, len(items))
		for _, item := range items {
			if item.Type() == fastjson.TypeString {
				messages = append(messages, string(item.GetStringBytes()))
				continue
			}
			messages = append(messages, item.String())
		}
		return messages
	case fastjson.TypeString:
		if s := string(field.GetStringBytes()); s != "" {
			return []string{s}
		}
	}

	return nil
}

// IsExchangeError reports whether err carries exchange-reported messages.
func IsExchangeError(err error) (*domain.ExchangeError, bool) {
	var exErr *domain.ExchangeError
	if errors.As(err, &exErr) {
		return exErr, true
	}
	return nil, false
}
