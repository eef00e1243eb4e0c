package domain

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidSecret is returned when the API secret is not valid base64.
	ErrInvalidSecret = errors.New("invalid API secret")

	// ErrMissingNonce is returned when a payload to be signed carries no nonce.
	ErrMissingNonce = errors.New("payload has no nonce")

	// ErrPriceFetchFailed marks a trade that could not obtain the best bid.
	ErrPriceFetchFailed = errors.New("price fetch failed")

	// ErrSubmissionFailed marks a trade whose order POST failed or got a non-2xx answer.
	ErrSubmissionFailed = errors.New("order submission failed")

	// ErrZeroVolume is returned when the budget buys less than one lot.
	ErrZeroVolume = errors.New("order volume rounds to zero")
)

// UpstreamUnavailableError non-2xx HTTP status from the exchange.
type UpstreamUnavailableError struct {
	StatusCode int
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("exchange responded with status code %d", e.StatusCode)
}

// ExchangeError business error reported by the exchange in the "error" array.
type ExchangeError struct {
	Messages []string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange returned an error: %s", strings.Join(e.Messages, "; "))
}

// MalformedResponseError unexpected response shape.
type MalformedResponseError struct {
	// Field path that is absent or unparsable, e.g. result.XBTUSD.b[0].
	Field string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed exchange response at %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("malformed exchange response: missing %s", e.Field)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// TradeError failure of a whole trade cycle. Kind is ErrPriceFetchFailed or ErrSubmissionFailed,
// Err is the underlying cause; errors.Is and errors.As match both.
type TradeError struct {
	Kind error
	Err  error
}

func (e *TradeError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *TradeError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewPriceFetchError wraps err as a price fetch failure.
func NewPriceFetchError(err error) *TradeError {
	return &TradeError{Kind: ErrPriceFetchFailed, Err: err}
}

// NewSubmissionError wraps err as a submission failure.
func NewSubmissionError(err error) *TradeError {
	return &TradeError{Kind: ErrSubmissionFailed, Err: err}
}
