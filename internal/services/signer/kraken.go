// Package signer computes API-Sign values for private exchange endpoints.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

// Payload request body that carries a nonce.
// Body must return the exact bytes that are sent to the exchange.
type Payload interface {
	NonceString() string
	Body() ([]byte, error)
}

// SignedRequest body together with its signature.
type SignedRequest struct {
	Body      []byte
	Signature string
}

// Signer signs requests with a decoded API secret.
type Signer struct {
	secret []byte
}

// NewSigner decodes the base64 API secret once.
func NewSigner(secretB64 string) (*Signer, error) {
	secret, err := decodeSecret(secretB64)
	if err != nil {
		return nil, err
	}
	return &Signer{secret: secret}, nil
}

// Sign serializes the payload once and signs the resulting bytes for urlPath.
func (s *Signer) Sign(urlPath string, payload Payload) (SignedRequest, error) {
	nonce := payload.NonceString()
	if nonce == "" {
		return SignedRequest{}, domain.ErrMissingNonce
	}

	body, err := payload.Body()
	if err != nil {
		return SignedRequest{}, errors.Wrap(err, "failed to serialize payload")
	}

	return SignedRequest{
		Body:      body,
		Signature: signBytes(s.secret, urlPath, nonce, body),
	}, nil
}

// Sign computes the API-Sign value for a single request:
// base64(HMAC-SHA512(secret, urlPath + SHA256(nonce + body))).
// Only the URL path takes part in the signature, never the host or query string.
func Sign(urlPath string, payload Payload, secretB64 string) (string, error) {
	s, err := NewSigner(secretB64)
	if err != nil {
		return "", err
	}

	signed, err := s.Sign(urlPath, payload)
	if err != nil {
		return "", err
	}
	return signed.Signature, nil
}

func signBytes(secret []byte, urlPath, nonce string, body []byte) string {
	sha := sha256.New()
	sha.Write([]byte(nonce))
	sha.Write(body)

	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(urlPath))
	mac.Write(sha.Sum(nil))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func decodeSecret(secretB64 string) ([]byte, error) {
	if secretB64 == "" {
		return nil, errors.Wrap(domain.ErrInvalidSecret, "secret is empty")
	}
	secret, err := base64.StdEncoding.DecodeString(secretB64)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrInvalidSecret, "base64 decode: %v", err)
	}
	return secret, nil
}

// RawPayload already serialized JSON body. Its bytes are signed as-is.
type RawPayload string

// NonceString reads the nonce field without re-serializing the body.
func (p RawPayload) NonceString() string {
	v, err := fastjson.Parse(string(p))
	if err != nil {
		return ""
	}

	nonce := v.Get("nonce")
	if nonce == nil {
		return ""
	}

	switch nonce.Type() {
	case fastjson.TypeString:
		return string(nonce.GetStringBytes())
	case fastjson.TypeNumber:
		return nonce.String()
	default:
		return ""
	}
}

// Body returns the payload bytes unchanged.
func (p RawPayload) Body() ([]byte, error) {
	if err := fastjson.Validate(string(p)); err != nil {
		return nil, errors.Wrap(err, "raw payload is not valid JSON")
	}
	return []byte(p), nil
}
