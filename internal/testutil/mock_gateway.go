package testutil

import (
	"context"
	"sync"

	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/gateway"
	"github.com/rai-abhi24/cgpey/internal/types"
)

type verifyResult struct {
	resp *gateway.VerifyResponse
	err  error
}

// MockGatewayClient is a scriptable gateway.Client for tests. Verify
// responses are queued per order id and consumed one per call; the last
// queued result sticks once the queue drains.
type MockGatewayClient struct {
	mu sync.Mutex

	verifyQueues map[string][]verifyResult
	verifyCalls  map[string]int

	refundCalls  []*gateway.RefundRequest
	refundStates map[string]types.RefundState

	// InitiateErr, when set, fails every InitiatePayment call
	InitiateErr error
	// RefundErr, when set, fails every InitiateRefund call
	RefundErr error
	// VPAValid controls VerifyVPA; defaults to accepting everything
	VPAValid bool
	// ParseCallbackFn overrides ParseCallback when set
	ParseCallbackFn func(raw []byte, signature string) (*gateway.CallbackEvent, error)
}

// NewMockGatewayClient creates a new scriptable gateway client
func NewMockGatewayClient() *MockGatewayClient {
	return &MockGatewayClient{
		verifyQueues: make(map[string][]verifyResult),
		verifyCalls:  make(map[string]int),
		refundStates: make(map[string]types.RefundState),
		VPAValid:     true,
	}
}

// QueueVerifyResponse appends a scripted status check result for an order
func (m *MockGatewayClient) QueueVerifyResponse(orderID string, resp *gateway.VerifyResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyQueues[orderID] = append(m.verifyQueues[orderID], verifyResult{resp: resp})
}

// QueueVerifyError appends a scripted status check failure for an order
func (m *MockGatewayClient) QueueVerifyError(orderID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyQueues[orderID] = append(m.verifyQueues[orderID], verifyResult{err: err})
}

// SetRefundState scripts the result of RefundStatus for a refund id
func (m *MockGatewayClient) SetRefundState(refundID string, state types.RefundState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refundStates[refundID] = state
}

// VerifyCallCount returns how many times VerifyPayment ran for an order
func (m *MockGatewayClient) VerifyCallCount(orderID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifyCalls[orderID]
}

// RefundCalls returns every InitiateRefund request seen so far
func (m *MockGatewayClient) RefundCalls() []*gateway.RefundRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*gateway.RefundRequest, len(m.refundCalls))
	copy(out, m.refundCalls)
	return out
}

func (m *MockGatewayClient) InitiatePayment(ctx context.Context, req *gateway.InitiateRequest) (*gateway.InitiateResponse, error) {
	if m.InitiateErr != nil {
		return nil, m.InitiateErr
	}

	resp := &gateway.InitiateResponse{
		GatewayTxnID: "GW_" + req.OrderID,
		State:        types.PaymentStatePending,
	}
	switch req.PaymentMode {
	case types.PaymentModeCard, types.PaymentModeNetBanking:
		resp.RedirectURL = "https://mercury.test/redirect/" + req.OrderID
	case types.PaymentModeUPIIntent:
		resp.IntentURL = "upi://pay?tr=" + req.OrderID
	default:
		resp.CheckoutURL = "https://mercury.test/checkout/" + req.OrderID
	}
	return resp, nil
}

func (m *MockGatewayClient) VerifyVPA(ctx context.Context, vpa string) (bool, error) {
	return m.VPAValid, nil
}

func (m *MockGatewayClient) VerifyPayment(ctx context.Context, orderID string) (*gateway.VerifyResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.verifyCalls[orderID]++

	queue := m.verifyQueues[orderID]
	if len(queue) == 0 {
		return &gateway.VerifyResponse{RawState: "PAYMENT_PENDING", State: types.PaymentStatePending}, nil
	}

	next := queue[0]
	if len(queue) > 1 {
		m.verifyQueues[orderID] = queue[1:]
	}
	if next.err != nil {
		return nil, next.err
	}
	return next.resp, nil
}

func (m *MockGatewayClient) InitiateRefund(ctx context.Context, req *gateway.RefundRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RefundErr != nil {
		return m.RefundErr
	}
	m.refundCalls = append(m.refundCalls, req)
	return nil
}

func (m *MockGatewayClient) RefundStatus(ctx context.Context, refundID string) (*gateway.RefundStatusResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.refundStates[refundID]
	if !ok {
		state = types.RefundStatePending
	}
	return &gateway.RefundStatusResponse{RawState: string(state), State: state}, nil
}

func (m *MockGatewayClient) ParseCallback(raw []byte, signature string) (*gateway.CallbackEvent, error) {
	if m.ParseCallbackFn != nil {
		return m.ParseCallbackFn(raw, signature)
	}
	return nil, ierr.NewError("no callback parser scripted").
		WithHint("Set ParseCallbackFn on the mock gateway client").
		Mark(ierr.ErrValidation)
}
