package phonepe

import (
	"context"
	"encoding/base64"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/rai-abhi24/cgpey/internal/config"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/gateway"
	"github.com/rai-abhi24/cgpey/internal/httpclient"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/security"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	pathPay          = "/pg/v1/pay"
	pathStatus       = "/pg/v1/status"
	pathVerifyVPA    = "/pg/v1/vpa/validate"
	pathRefund       = "/pg/v1/refund"
	pathRefundStatus = "/pg/v1/refund/status"
)

// Client talks to the PhonePe payment gateway
type Client struct {
	cfg     *config.GatewayConfig
	http    httpclient.Client
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewClient creates a new PhonePe gateway client
func NewClient(cfg *config.Configuration, http httpclient.Client, log *logger.Logger) gateway.Client {
	return &Client{
		cfg:     &cfg.Gateway,
		http:    http,
		limiter: rate.NewLimiter(rate.Limit(cfg.Gateway.VerifyRatePerSecond), 1),
		logger:  log,
	}
}

// InitiatePayment creates a transaction upstream and returns the handoff
// target for the chosen instrument
func (c *Client) InitiatePayment(ctx context.Context, req *gateway.InitiateRequest) (*gateway.InitiateResponse, error) {
	instrument := map[string]any{"type": instrumentType(req.PaymentMode)}
	if req.PaymentMode == types.PaymentModeUPICollect && req.VPA != "" {
		instrument["targetApp"] = nil
		instrument["vpa"] = req.VPA
	}

	body := map[string]any{
		"merchantId":            c.cfg.MerchantID,
		"merchantTransactionId": req.OrderID,
		// PhonePe amounts are in paise
		"amount":      req.Amount.Mul(paiseMultiplier).IntPart(),
		"redirectUrl": firstNonEmpty(req.RedirectURL, c.cfg.RedirectURL),
		"callbackUrl": firstNonEmpty(req.CallbackURL, c.cfg.CallbackURL),
		"paymentInstrument": instrument,
	}

	var parsed payResponse
	if err := c.post(ctx, pathPay, body, &parsed); err != nil {
		return nil, err
	}

	data := parsed.innerData()
	resp := &gateway.InitiateResponse{
		GatewayTxnID: data.TransactionID,
		State:        types.ParseGatewayState(parsed.state()),
	}

	switch req.PaymentMode {
	case types.PaymentModeUPIIntent:
		resp.IntentURL = data.InstrumentResponse.IntentURL()
	case types.PaymentModeUPICollect, types.PaymentModeUPIQR:
		resp.CheckoutURL = data.InstrumentResponse.RedirectURL()
	default:
		resp.RedirectURL = data.InstrumentResponse.RedirectURL()
	}

	return resp, nil
}

// VerifyVPA checks whether a UPI id exists
func (c *Client) VerifyVPA(ctx context.Context, vpa string) (bool, error) {
	body := map[string]any{
		"merchantId": c.cfg.MerchantID,
		"vpa":        vpa,
	}

	var parsed payResponse
	if err := c.post(ctx, pathVerifyVPA, body, &parsed); err != nil {
		return false, err
	}
	return parsed.Success, nil
}

// VerifyPayment checks the current state of a transaction. Calls are rate
// limited because polling sessions fan out per in-flight payment.
func (c *Client) VerifyPayment(ctx context.Context, orderID string) (*gateway.VerifyResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrGateway)
	}

	body := map[string]any{
		"merchantId":            c.cfg.MerchantID,
		"merchantTransactionId": orderID,
	}

	var parsed payResponse
	if err := c.post(ctx, pathStatus, body, &parsed); err != nil {
		return nil, err
	}

	data := parsed.innerData()
	raw := parsed.state()
	return &gateway.VerifyResponse{
		RawState:     raw,
		State:        types.ParseGatewayState(raw),
		UTR:          data.InstrumentResponse.UTR,
		GatewayTxnID: data.TransactionID,
	}, nil
}

// InitiateRefund requests a refund upstream; req.RefundID is passed as the
// merchant transaction id so a retried initiation is idempotent
func (c *Client) InitiateRefund(ctx context.Context, req *gateway.RefundRequest) error {
	body := map[string]any{
		"merchantId":            c.cfg.MerchantID,
		"merchantTransactionId": req.RefundID,
		"originalTransactionId": req.OrderID,
		"amount":                req.Amount.Mul(paiseMultiplier).IntPart(),
	}

	var parsed payResponse
	if err := c.post(ctx, pathRefund, body, &parsed); err != nil {
		return err
	}
	if !parsed.Success {
		return ierr.NewError("refund rejected by gateway").
			WithHint("The gateway rejected the refund request").
			WithReportableDetails(map[string]any{"code": parsed.Code}).
			Mark(ierr.ErrGateway)
	}
	return nil
}

// RefundStatus checks the current state of a refund
func (c *Client) RefundStatus(ctx context.Context, refundID string) (*gateway.RefundStatusResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrGateway)
	}

	body := map[string]any{
		"merchantId":            c.cfg.MerchantID,
		"merchantTransactionId": refundID,
	}

	var parsed payResponse
	if err := c.post(ctx, pathRefundStatus, body, &parsed); err != nil {
		return nil, err
	}

	raw := parsed.state()
	return &gateway.RefundStatusResponse{
		RawState: raw,
		State:    types.ParseGatewayRefundState(raw),
	}, nil
}

// post sends a checksummed request and decodes the response tolerantly
func (c *Client) post(ctx context.Context, path string, body map[string]any, out *payResponse) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrGateway)
	}

	encoded := base64.StdEncoding.EncodeToString(raw)
	payload, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrGateway)
	}

	req := &httpclient.Request{
		Method: http.MethodPost,
		URL:    c.cfg.BaseURL + path,
		Headers: map[string]string{
			"X-VERIFY": security.GatewayChecksum(encoded, path, c.cfg.SaltKey, c.cfg.SaltIndex),
		},
		Body: payload,
	}

	resp, err := c.http.Send(ctx, req)
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok {
			return ierr.WithError(err).
				WithHint("The payment gateway returned an error").
				WithReportableDetails(map[string]any{"status_code": httpErr.StatusCode}).
				Mark(ierr.ErrGateway)
		}
		return ierr.WithError(err).
			WithHint("The payment gateway could not be reached").
			Mark(ierr.ErrGateway)
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return ierr.WithError(err).
			WithHint("The payment gateway returned a malformed response").
			Mark(ierr.ErrGateway)
	}
	return nil
}

func instrumentType(mode types.PaymentMode) string {
	switch mode {
	case types.PaymentModeUPIIntent:
		return "UPI_INTENT"
	case types.PaymentModeUPICollect:
		return "UPI_COLLECT"
	case types.PaymentModeUPIQR:
		return "UPI_QR"
	case types.PaymentModeCard:
		return "CARD"
	case types.PaymentModeNetBanking:
		return "NET_BANKING"
	}
	return "PAY_PAGE"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// paiseMultiplier converts rupee amounts to the paise integers PhonePe expects
var paiseMultiplier = decimal.NewFromInt(100)
