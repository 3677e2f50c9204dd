package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rai-abhi24/cgpey/internal/domain/webhookevent"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/postgres"
	"github.com/rai-abhi24/cgpey/internal/types"
)

type webhookEventRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewWebhookEventRepository(db *postgres.DB, logger *logger.Logger) webhookevent.Repository {
	return &webhookEventRepository{db: db, logger: logger}
}

const inboundEventColumns = `
	id, gateway, event, gateway_webhook_id, raw_payload, parsed_payload,
	signature, signature_verified, status, retries, last_error,
	payment_id, refund_id, merchant_id, processed_at, created_at, updated_at
`

func (r *webhookEventRepository) Create(ctx context.Context, event *webhookevent.InboundWebhookEvent) error {
	query := `
	INSERT INTO inbound_webhook_events (` + inboundEventColumns + `
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
	)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		event.ID,
		event.Gateway,
		event.Event,
		event.GatewayWebhookID,
		event.RawPayload,
		event.ParsedPayload,
		event.Signature,
		event.SignatureVerified,
		event.Status,
		event.Retries,
		event.LastError,
		event.PaymentID,
		event.RefundID,
		event.MerchantID,
		event.ProcessedAt,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "inbound webhook event")
	}

	return nil
}

func (r *webhookEventRepository) Get(ctx context.Context, id string) (*webhookevent.InboundWebhookEvent, error) {
	query := `SELECT ` + inboundEventColumns + ` FROM inbound_webhook_events WHERE id = $1`

	var event webhookevent.InboundWebhookEvent
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &event, query, id); err != nil {
		return nil, mapError(err, "inbound webhook event")
	}

	return &event, nil
}

func (r *webhookEventRepository) GetByGatewayEventID(ctx context.Context, gateway types.PaymentGatewayType, gatewayWebhookID string) (*webhookevent.InboundWebhookEvent, error) {
	query := `
	SELECT ` + inboundEventColumns + `
	FROM inbound_webhook_events
	WHERE gateway = $1 AND gateway_webhook_id = $2
	`

	var event webhookevent.InboundWebhookEvent
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &event, query, gateway, gatewayWebhookID); err != nil {
		return nil, mapError(err, "inbound webhook event")
	}

	return &event, nil
}

func (r *webhookEventRepository) Update(ctx context.Context, event *webhookevent.InboundWebhookEvent) error {
	query := `
	UPDATE inbound_webhook_events SET
		status = $2,
		retries = $3,
		last_error = $4,
		payment_id = $5,
		refund_id = $6,
		merchant_id = $7,
		processed_at = $8,
		updated_at = $9
	WHERE id = $1
	`

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		event.ID,
		event.Status,
		event.Retries,
		event.LastError,
		event.PaymentID,
		event.RefundID,
		event.MerchantID,
		event.ProcessedAt,
		time.Now().UTC(),
	)
	if err != nil {
		return mapError(err, "inbound webhook event")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return mapError(err, "inbound webhook event")
	}
	if rows == 0 {
		return ierr.NewError("inbound webhook event not found").
			WithHint("Webhook event does not exist").
			Mark(ierr.ErrNotFound)
	}

	return nil
}

func (r *webhookEventRepository) List(ctx context.Context, filter *webhookevent.Filter) ([]*webhookevent.InboundWebhookEvent, error) {
	var (
		conds []string
		args  []interface{}
	)

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	limit, offset := 50, 0
	if filter != nil {
		if filter.Gateway != "" {
			add("gateway = $%d", filter.Gateway)
		}
		if filter.Status != "" {
			add("status = $%d", filter.Status)
		}
		if filter.MerchantID != "" {
			add("merchant_id = $%d", filter.MerchantID)
		}
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		if filter.Offset > 0 {
			offset = filter.Offset
		}
	}

	query := `SELECT ` + inboundEventColumns + ` FROM inbound_webhook_events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var events []*webhookevent.InboundWebhookEvent
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &events, query, args...); err != nil {
		return nil, mapError(err, "inbound webhook event")
	}

	return events, nil
}
