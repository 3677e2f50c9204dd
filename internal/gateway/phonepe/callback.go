package phonepe

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/gateway"
	"github.com/rai-abhi24/cgpey/internal/security"
	"github.com/rai-abhi24/cgpey/internal/types"
)

// callbackEnvelope is the webhook body PhonePe posts: the real payload is
// base64 inside it, checksummed by the X-VERIFY header
type callbackEnvelope struct {
	Response string `json:"response"`
}

type callbackPayload struct {
	Success bool         `json:"success"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Data    callbackData `json:"data"`
}

type callbackData struct {
	MerchantID            string             `json:"merchantId"`
	MerchantTransactionID string             `json:"merchantTransactionId"`
	TransactionID         string             `json:"transactionId"`
	State                 string             `json:"state"`
	ResponseCode          string             `json:"responseCode"`
	InstrumentResponse    instrumentResponse `json:"paymentInstrument"`
	UTR                   string             `json:"utr"`
}

// ParseCallback decodes a PhonePe server-to-server callback. The checksum
// covers the base64 payload with no path component.
func (c *Client) ParseCallback(raw []byte, signature string) (*gateway.CallbackEvent, error) {
	var envelope callbackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Malformed callback envelope").
			Mark(ierr.ErrValidation)
	}
	if envelope.Response == "" {
		return nil, ierr.NewError("empty callback response").
			WithHint("Callback body carries no payload").
			Mark(ierr.ErrValidation)
	}

	decoded, err := base64.StdEncoding.DecodeString(envelope.Response)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Callback payload is not valid base64").
			Mark(ierr.ErrValidation)
	}

	var payload callbackPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Callback payload is not valid JSON").
			Mark(ierr.ErrValidation)
	}

	expected := security.GatewayChecksum(envelope.Response, "", c.cfg.SaltKey, c.cfg.SaltIndex)
	verified := security.SecureCompare(expected, signature)

	utr := payload.Data.UTR
	if utr == "" {
		utr = payload.Data.InstrumentResponse.UTR
	}

	// PhonePe does not assign callback ids; a digest of the payload makes
	// re-sent callbacks collide on the same id
	sum := sha256.Sum256(decoded)

	return &gateway.CallbackEvent{
		EventID:      hex.EncodeToString(sum[:16]),
		Event:        payload.Code,
		OrderID:      payload.Data.MerchantTransactionID,
		GatewayTxnID: payload.Data.TransactionID,
		RawState:     payload.Data.State,
		State:        types.ParseGatewayState(payload.Data.State),
		UTR:          utr,
		Verified:     verified,
		Parsed:       decoded,
	}, nil
}
