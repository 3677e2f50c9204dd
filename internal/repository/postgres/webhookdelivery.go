package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rai-abhi24/cgpey/internal/domain/webhookdelivery"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/postgres"
)

type webhookDeliveryRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewWebhookDeliveryRepository(db *postgres.DB, logger *logger.Logger) webhookdelivery.Repository {
	return &webhookDeliveryRepository{db: db, logger: logger}
}

const deliveryColumns = `
	id, merchant_id, event_type, payment_id, url, payload, signature,
	status, attempts, max_attempts, next_retry_at, retry_delay_ms,
	last_error, idempotency_key, created_at, updated_at
`

func (r *webhookDeliveryRepository) Create(ctx context.Context, delivery *webhookdelivery.WebhookDelivery) error {
	query := `
	INSERT INTO webhook_deliveries (` + deliveryColumns + `
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
	)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		delivery.ID,
		delivery.MerchantID,
		delivery.EventType,
		delivery.PaymentID,
		delivery.URL,
		delivery.Payload,
		delivery.Signature,
		delivery.Status,
		delivery.Attempts,
		delivery.MaxAttempts,
		delivery.NextRetryAt,
		delivery.RetryDelay.Milliseconds(),
		delivery.LastError,
		delivery.IdempotencyKey,
		delivery.CreatedAt,
		delivery.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "webhook delivery")
	}

	return nil
}

func (r *webhookDeliveryRepository) Get(ctx context.Context, id string) (*webhookdelivery.WebhookDelivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM webhook_deliveries WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *webhookDeliveryRepository) GetByIdempotencyKey(ctx context.Context, key string) (*webhookdelivery.WebhookDelivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM webhook_deliveries WHERE idempotency_key = $1`
	return r.getOne(ctx, query, key)
}

func (r *webhookDeliveryRepository) getOne(ctx context.Context, query string, arg interface{}) (*webhookdelivery.WebhookDelivery, error) {
	var row deliveryRow
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &row, query, arg); err != nil {
		return nil, mapError(err, "webhook delivery")
	}
	return row.toDomain(), nil
}

func (r *webhookDeliveryRepository) Update(ctx context.Context, delivery *webhookdelivery.WebhookDelivery) error {
	query := `
	UPDATE webhook_deliveries SET
		status = $2,
		attempts = $3,
		max_attempts = $4,
		next_retry_at = $5,
		last_error = $6,
		updated_at = $7
	WHERE id = $1
	`

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		delivery.ID,
		delivery.Status,
		delivery.Attempts,
		delivery.MaxAttempts,
		delivery.NextRetryAt,
		delivery.LastError,
		time.Now().UTC(),
	)
	if err != nil {
		return mapError(err, "webhook delivery")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return mapError(err, "webhook delivery")
	}
	if rows == 0 {
		return ierr.NewError("webhook delivery not found").
			WithHint("Delivery record does not exist").
			Mark(ierr.ErrNotFound)
	}

	return nil
}

func (r *webhookDeliveryRepository) ListPendingRetries(ctx context.Context, before time.Time, limit int) ([]*webhookdelivery.WebhookDelivery, error) {
	query := `
	SELECT ` + deliveryColumns + `
	FROM webhook_deliveries
	WHERE status = 'RETRYING' AND next_retry_at <= $1
	ORDER BY next_retry_at ASC
	LIMIT $2
	`

	var rows []deliveryRow
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows, query, before, limit); err != nil {
		return nil, mapError(err, "webhook delivery")
	}

	return toDomainList(rows), nil
}

func (r *webhookDeliveryRepository) List(ctx context.Context, filter *webhookdelivery.Filter) ([]*webhookdelivery.WebhookDelivery, error) {
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
		if filter.MerchantID != "" {
			add("merchant_id = $%d", filter.MerchantID)
		}
		if filter.PaymentID != "" {
			add("payment_id = $%d", filter.PaymentID)
		}
		if filter.Status != "" {
			add("status = $%d", filter.Status)
		}
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		if filter.Offset > 0 {
			offset = filter.Offset
		}
	}

	query := `SELECT ` + deliveryColumns + ` FROM webhook_deliveries`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var rows []deliveryRow
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err, "webhook delivery")
	}

	return toDomainList(rows), nil
}

// deliveryRow exists because retry_delay_ms is stored as an integer column
// while the domain model carries a time.Duration
type deliveryRow struct {
	webhookdelivery.WebhookDelivery
	RetryDelayMs int64 `db:"retry_delay_ms"`
}

func (row *deliveryRow) toDomain() *webhookdelivery.WebhookDelivery {
	d := row.WebhookDelivery
	d.RetryDelay = time.Duration(row.RetryDelayMs) * time.Millisecond
	return &d
}

func toDomainList(rows []deliveryRow) []*webhookdelivery.WebhookDelivery {
	out := make([]*webhookdelivery.WebhookDelivery, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
