package phonepe

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/rai-abhi24/cgpey/internal/config"
	"github.com/rai-abhi24/cgpey/internal/httpclient"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/security"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.Gateway.SaltKey = "test-salt-key"
	cfg.Gateway.SaltIndex = "1"

	log, err := logger.NewLogger(cfg)
	require.NoError(t, err)

	return NewClient(cfg, httpclient.NewDefaultClient(), log).(*Client)
}

func callbackBody(t *testing.T, inner string) (raw []byte, signature string) {
	t.Helper()
	encoded := base64.StdEncoding.EncodeToString([]byte(inner))
	raw = []byte(fmt.Sprintf(`{"response":%q}`, encoded))
	signature = security.GatewayChecksum(encoded, "", "test-salt-key", "1")
	return raw, signature
}

func TestParseCallback_Success(t *testing.T) {
	c := newTestClient(t)

	inner := `{
		"success": true,
		"code": "PAYMENT_SUCCESS",
		"data": {
			"merchantId": "MERCHANT1",
			"merchantTransactionId": "ord_abc123",
			"transactionId": "T2409261230",
			"state": "COMPLETED",
			"paymentInstrument": {"type": "UPI", "utr": "UTR0001"}
		}
	}`
	raw, sig := callbackBody(t, inner)

	ev, err := c.ParseCallback(raw, sig)
	require.NoError(t, err)
	assert.True(t, ev.Verified)
	assert.Equal(t, "PAYMENT_SUCCESS", ev.Event)
	assert.Equal(t, "ord_abc123", ev.OrderID)
	assert.Equal(t, "T2409261230", ev.GatewayTxnID)
	assert.Equal(t, "COMPLETED", ev.RawState)
	assert.Equal(t, types.PaymentStateSuccess, ev.State)
	assert.Equal(t, "UTR0001", ev.UTR)
	assert.NotEmpty(t, ev.EventID)
}

func TestParseCallback_EventIDStableAcrossResends(t *testing.T) {
	c := newTestClient(t)

	inner := `{"code":"PAYMENT_SUCCESS","data":{"merchantTransactionId":"ord_1","state":"COMPLETED"}}`
	raw, sig := callbackBody(t, inner)

	first, err := c.ParseCallback(raw, sig)
	require.NoError(t, err)
	second, err := c.ParseCallback(raw, sig)
	require.NoError(t, err)
	assert.Equal(t, first.EventID, second.EventID)

	otherRaw, otherSig := callbackBody(t, `{"code":"PAYMENT_SUCCESS","data":{"merchantTransactionId":"ord_2","state":"COMPLETED"}}`)
	other, err := c.ParseCallback(otherRaw, otherSig)
	require.NoError(t, err)
	assert.NotEqual(t, first.EventID, other.EventID)
}

func TestParseCallback_TamperedSignature(t *testing.T) {
	c := newTestClient(t)

	inner := `{"code":"PAYMENT_SUCCESS","data":{"merchantTransactionId":"ord_1","state":"COMPLETED"}}`
	raw, _ := callbackBody(t, inner)

	ev, err := c.ParseCallback(raw, "bogus###1")
	require.NoError(t, err)
	assert.False(t, ev.Verified)
	// the payload still decodes so the event can be stored for audit
	assert.Equal(t, "ord_1", ev.OrderID)
}

func TestParseCallback_TopLevelUTRWins(t *testing.T) {
	c := newTestClient(t)

	inner := `{"code":"PAYMENT_SUCCESS","data":{"merchantTransactionId":"ord_1","state":"COMPLETED","utr":"UTR_TOP","paymentInstrument":{"utr":"UTR_NESTED"}}}`
	raw, sig := callbackBody(t, inner)

	ev, err := c.ParseCallback(raw, sig)
	require.NoError(t, err)
	assert.Equal(t, "UTR_TOP", ev.UTR)
}

func TestParseCallback_MalformedBodies(t *testing.T) {
	c := newTestClient(t)

	_, err := c.ParseCallback([]byte(`not json`), "sig")
	assert.Error(t, err)

	_, err = c.ParseCallback([]byte(`{"response":""}`), "sig")
	assert.Error(t, err)

	_, err = c.ParseCallback([]byte(`{"response":"%%%not-base64%%%"}`), "sig")
	assert.Error(t, err)
}
