package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/patrickmn/go-cache"
	"github.com/rai-abhi24/cgpey/internal/api/dto"
	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	"github.com/rai-abhi24/cgpey/internal/domain/webhookevent"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/gateway"
	"github.com/rai-abhi24/cgpey/internal/types"
)

// Poll outcomes reported to the caller. Only "terminal" means the payment
// reached a final state; the other two leave it PENDING.
const (
	PollOutcomeTerminal  = "terminal"
	PollOutcomeTimedOut  = "timed_out"
	PollOutcomeCancelled = "cancelled"
)

// errStillPending drives the poll loop; it never escapes this package
var errStillPending = errors.New("payment still pending")

// ReconciliationService owns every path that moves a payment out of
// PENDING: active polling, inbound gateway webhooks and manual replays
type ReconciliationService interface {
	// PollUntilTerminal verifies the payment against the gateway on a fixed
	// cadence until it reaches a terminal state, the attempt budget runs
	// out, or the context is cancelled
	PollUntilTerminal(ctx context.Context, orderID string) (*dto.VerifyPaymentResponse, error)

	// ApplyGatewayState applies a canonicalized gateway state to a payment.
	// Returns false when the payment was already terminal; the first
	// terminal write always wins.
	ApplyGatewayState(ctx context.Context, p *payment.Payment, state types.PaymentState, utr *string) (bool, error)

	// ProcessInboundWebhook ingests one gateway callback: verify, store,
	// dedupe, resolve and apply
	ProcessInboundWebhook(ctx context.Context, gw types.PaymentGatewayType, raw []byte, signature string) (*dto.InboundWebhookAck, error)

	// ReplayInboundWebhook re-runs the processing path for a stored
	// callback on explicit operator action
	ReplayInboundWebhook(ctx context.Context, eventID string) (*dto.InboundWebhookEventResponse, error)

	ListInboundWebhooks(ctx context.Context, filter *webhookevent.Filter) ([]*dto.InboundWebhookEventResponse, error)
}

type reconciliationService struct {
	ServiceParams
	// inflight guards against concurrent poll sessions for one payment
	inflight *cache.Cache
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(params ServiceParams) ReconciliationService {
	sessionTTL := time.Duration(params.Config.Gateway.PollAttempts+1) * params.Config.Gateway.PollInterval
	return &reconciliationService{
		ServiceParams: params,
		inflight:      cache.New(sessionTTL, 2*sessionTTL),
	}
}

func (s *reconciliationService) PollUntilTerminal(ctx context.Context, orderID string) (*dto.VerifyPaymentResponse, error) {
	p, err := s.PaymentRepo.GetByOrderID(ctx, orderID, types.PaymentGatewayTypePhonePe)
	if err != nil {
		return nil, err
	}

	if merchantID := types.GetMerchantID(ctx); merchantID != "" && p.MerchantID != merchantID {
		return nil, ierr.NewError("payment not found").
			WithHint("No payment exists for this order").
			Mark(ierr.ErrNotFound)
	}

	if p.State.IsTerminal() {
		return &dto.VerifyPaymentResponse{
			Payment: dto.NewPaymentResponse(p),
			Outcome: PollOutcomeTerminal,
		}, nil
	}

	if err := s.inflight.Add(p.ID, true, cache.DefaultExpiration); err != nil {
		return nil, ierr.NewError("verification already in progress").
			WithHint("A verification session for this payment is already running").
			WithReportableDetails(map[string]any{"order_id": orderID}).
			Mark(ierr.ErrInvalidOperation)
	}
	defer s.inflight.Delete(p.ID)

	var (
		attempts int
		result   *gateway.VerifyResponse
	)

	operation := func() error {
		attempts++
		verifyResp, verifyErr := s.GatewayClient.VerifyPayment(ctx, p.OrderID)
		if verifyErr != nil {
			s.Logger.Warnw("gateway verify attempt failed",
				"error", verifyErr,
				"payment_id", p.ID,
				"attempt", attempts,
			)
			return verifyErr
		}
		if !verifyResp.State.IsTerminal() {
			return errStillPending
		}
		result = verifyResp
		return nil
	}

	cadence := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(s.Config.Gateway.PollInterval),
			uint64(s.Config.Gateway.PollAttempts-1),
		),
		ctx,
	)

	pollErr := backoff.Retry(operation, cadence)

	if result != nil {
		var utr *string
		if result.UTR != "" {
			utr = &result.UTR
		}
		if _, err := s.ApplyGatewayState(ctx, p, result.State, utr); err != nil {
			return nil, err
		}
		refreshed, err := s.PaymentRepo.Get(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return &dto.VerifyPaymentResponse{
			Payment:  dto.NewPaymentResponse(refreshed),
			Outcome:  PollOutcomeTerminal,
			Attempts: attempts,
		}, nil
	}

	if ctx.Err() != nil {
		// Cancellation leaves the payment PENDING; a webhook or a later
		// poll will finish the job
		return &dto.VerifyPaymentResponse{
			Payment:  dto.NewPaymentResponse(p),
			Outcome:  PollOutcomeCancelled,
			Attempts: attempts,
		}, nil
	}

	// The attempt budget ran out without a terminal answer. Gateway errors
	// consume attempts the same way "still pending" answers do; either way
	// the payment stays PENDING and reconcilable by webhook or a later poll
	if errors.Is(pollErr, errStillPending) {
		s.Logger.Infow("poll budget exhausted, payment still pending",
			"payment_id", p.ID,
			"attempts", attempts,
		)
	} else {
		s.Logger.Warnw("poll budget exhausted, final attempt errored",
			"error", pollErr,
			"payment_id", p.ID,
			"attempts", attempts,
		)
	}
	return &dto.VerifyPaymentResponse{
		Payment:  dto.NewPaymentResponse(p),
		Outcome:  PollOutcomeTimedOut,
		Attempts: attempts,
	}, nil
}

func (s *reconciliationService) ApplyGatewayState(ctx context.Context, p *payment.Payment, state types.PaymentState, utr *string) (bool, error) {
	// UNKNOWN and CREATED never overwrite anything
	if !state.IsTerminal() && state != types.PaymentStatePending {
		return false, nil
	}

	applied, err := s.PaymentRepo.TransitionState(ctx, p.ID, state, utr)
	if err != nil {
		return false, err
	}
	if !applied {
		s.Logger.Debugw("state transition skipped, payment already terminal",
			"payment_id", p.ID,
			"requested_state", state,
		)
		return false, nil
	}

	p.State = state
	if utr != nil {
		p.UTR = utr
	}

	s.Logger.Infow("payment state applied",
		"payment_id", p.ID,
		"state", state,
	)

	if eventName, ok := types.WebhookEventForPaymentState(state); ok {
		s.publishPaymentEvent(ctx, eventName, p)
	}

	return true, nil
}

func (s *reconciliationService) ProcessInboundWebhook(ctx context.Context, gw types.PaymentGatewayType, raw []byte, signature string) (*dto.InboundWebhookAck, error) {
	parsed, err := s.GatewayClient.ParseCallback(raw, signature)
	if err != nil {
		return nil, err
	}

	event := &webhookevent.InboundWebhookEvent{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_INBOUND),
		Gateway:           gw,
		Event:             parsed.Event,
		GatewayWebhookID:  parsed.EventID,
		RawPayload:        raw,
		ParsedPayload:     parsed.Parsed,
		Signature:         signature,
		SignatureVerified: parsed.Verified,
		Status:            types.InboundWebhookStatusPending,
		BaseModel:         types.GetDefaultBaseModel(),
	}

	if err := s.WebhookEventRepo.Create(ctx, event); err != nil {
		if ierr.IsAlreadyExists(err) {
			existing, getErr := s.WebhookEventRepo.GetByGatewayEventID(ctx, gw, parsed.EventID)
			if getErr != nil {
				return nil, getErr
			}
			s.Logger.Infow("duplicate gateway webhook ignored",
				"event_id", existing.ID,
				"gateway_webhook_id", parsed.EventID,
			)
			return &dto.InboundWebhookAck{Success: true, EventID: existing.ID, Duplicate: true}, nil
		}
		return nil, err
	}

	if !parsed.Verified {
		failure := ierr.NewError("signature verification failed").
			WithHint("Webhook signature does not match the shared salt").
			Mark(ierr.ErrUnauthorized)
		event.MarkFailed(failure)
		if updateErr := s.WebhookEventRepo.Update(ctx, event); updateErr != nil {
			return nil, updateErr
		}
		return nil, failure
	}

	if err := s.applyCallback(ctx, event, parsed); err != nil {
		event.MarkFailed(err)
		if updateErr := s.WebhookEventRepo.Update(ctx, event); updateErr != nil {
			return nil, updateErr
		}
		return nil, err
	}

	if err := s.WebhookEventRepo.Update(ctx, event); err != nil {
		return nil, err
	}

	return &dto.InboundWebhookAck{Success: true, EventID: event.ID}, nil
}

// applyCallback resolves the referenced record and applies the state the
// callback carries. Unresolvable payments mark the event IGNORED; that is
// an expected race with checkout, not a failure.
func (s *reconciliationService) applyCallback(ctx context.Context, event *webhookevent.InboundWebhookEvent, parsed *gateway.CallbackEvent) error {
	now := time.Now().UTC()

	// Refund callbacks reference the refund id we handed upstream
	if strings.HasPrefix(parsed.OrderID, types.UUID_PREFIX_REFUND+"_") {
		refund, err := s.PaymentRepo.GetRefund(ctx, parsed.OrderID)
		if err != nil {
			if ierr.IsNotFound(err) {
				event.MarkIgnored()
				return nil
			}
			return err
		}

		parent, err := s.PaymentRepo.Get(ctx, refund.PaymentID)
		if err != nil {
			return err
		}

		event.RefundID = &refund.ID
		event.PaymentID = &parent.ID
		event.MerchantID = &parent.MerchantID

		if _, err := s.applyRefundState(ctx, refund, types.ParseGatewayRefundState(parsed.RawState), parent.MerchantID); err != nil {
			return err
		}
		event.MarkProcessed(now)
		return nil
	}

	p, err := s.resolvePayment(ctx, parsed)
	if err != nil {
		if ierr.IsNotFound(err) {
			event.MarkIgnored()
			s.Logger.Warnw("webhook references unknown payment, ignoring",
				"event_id", event.ID,
				"order_id", parsed.OrderID,
				"gateway_txn_id", parsed.GatewayTxnID,
			)
			return nil
		}
		return err
	}

	event.PaymentID = &p.ID
	event.MerchantID = &p.MerchantID

	var utr *string
	if parsed.UTR != "" {
		utr = &parsed.UTR
	}
	if _, err := s.ApplyGatewayState(ctx, p, parsed.State, utr); err != nil {
		return err
	}

	event.MarkProcessed(now)
	return nil
}

func (s *reconciliationService) resolvePayment(ctx context.Context, parsed *gateway.CallbackEvent) (*payment.Payment, error) {
	if parsed.GatewayTxnID != "" {
		p, err := s.PaymentRepo.GetByGatewayTxnID(ctx, parsed.GatewayTxnID)
		if err == nil {
			return p, nil
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}
	return s.PaymentRepo.GetByOrderID(ctx, parsed.OrderID, types.PaymentGatewayTypePhonePe)
}

func (s *reconciliationService) ReplayInboundWebhook(ctx context.Context, eventID string) (*dto.InboundWebhookEventResponse, error) {
	event, err := s.WebhookEventRepo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.Status == types.InboundWebhookStatusProcessed {
		return nil, ierr.NewError("event already processed").
			WithHint("Processed events cannot be replayed").
			Mark(ierr.ErrInvalidOperation)
	}

	parsed, err := s.GatewayClient.ParseCallback(event.RawPayload, event.Signature)
	if err != nil {
		return nil, err
	}
	if !parsed.Verified {
		return nil, ierr.NewError("signature verification failed").
			WithHint("The stored callback signature does not verify").
			Mark(ierr.ErrUnauthorized)
	}

	event.ResetForReplay()

	if err := s.applyCallback(ctx, event, parsed); err != nil {
		event.MarkFailed(err)
		if updateErr := s.WebhookEventRepo.Update(ctx, event); updateErr != nil {
			return nil, updateErr
		}
		return nil, err
	}

	if err := s.WebhookEventRepo.Update(ctx, event); err != nil {
		return nil, err
	}

	s.Logger.Infow("inbound webhook replayed",
		"event_id", event.ID,
		"status", event.Status,
	)

	return dto.NewInboundWebhookEventResponse(event), nil
}

func (s *reconciliationService) ListInboundWebhooks(ctx context.Context, filter *webhookevent.Filter) ([]*dto.InboundWebhookEventResponse, error) {
	if filter == nil {
		filter = &webhookevent.Filter{}
	}
	// callers only ever see callbacks attributed to their own merchant
	filter.MerchantID = types.GetMerchantID(ctx)

	events, err := s.WebhookEventRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.InboundWebhookEventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, dto.NewInboundWebhookEventResponse(e))
	}
	return items, nil
}
