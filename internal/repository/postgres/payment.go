package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/postgres"
	"github.com/rai-abhi24/cgpey/internal/types"
)

type paymentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return &paymentRepository{db: db, logger: logger}
}

const paymentColumns = `
	id, merchant_order_id, order_id, merchant_id, gateway, gateway_txn_id,
	amount, currency, state, checkout_type, payment_mode, utr,
	payment_initiated_at, completed_at, created_at, updated_at
`

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `
	INSERT INTO payments (` + paymentColumns + `
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
	)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		p.ID,
		p.MerchantOrderID,
		p.OrderID,
		p.MerchantID,
		p.Gateway,
		p.GatewayTxnID,
		p.Amount,
		p.Currency,
		p.State,
		p.CheckoutType,
		p.PaymentMode,
		p.UTR,
		p.PaymentInitiatedAt,
		p.CompletedAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "payment")
	}

	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	var p payment.Payment
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, id); err != nil {
		return nil, mapError(err, "payment")
	}

	return r.attachRefund(ctx, &p)
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID string, gateway types.PaymentGatewayType) (*payment.Payment, error) {
	query := `
	SELECT ` + paymentColumns + `
	FROM payments
	WHERE (order_id = $1 OR merchant_order_id = $1) AND gateway = $2
	ORDER BY created_at DESC
	LIMIT 1
	`

	var p payment.Payment
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, orderID, gateway); err != nil {
		return nil, mapError(err, "payment")
	}

	return r.attachRefund(ctx, &p)
}

func (r *paymentRepository) GetByGatewayTxnID(ctx context.Context, gatewayTxnID string) (*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_txn_id = $1`

	var p payment.Payment
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &p, query, gatewayTxnID); err != nil {
		return nil, mapError(err, "payment")
	}

	return r.attachRefund(ctx, &p)
}

func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	query := `
	UPDATE payments SET
		gateway_txn_id = $2,
		state = $3,
		payment_mode = $4,
		utr = $5,
		completed_at = $6,
		updated_at = $7
	WHERE id = $1
	`

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		p.ID,
		p.GatewayTxnID,
		p.State,
		p.PaymentMode,
		p.UTR,
		p.CompletedAt,
		time.Now().UTC(),
	)
	if err != nil {
		return mapError(err, "payment")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return mapError(err, "payment")
	}
	if rows == 0 {
		return ierr.NewError("payment not found").
			WithHint("Payment does not exist").
			Mark(ierr.ErrNotFound)
	}

	return nil
}

func (r *paymentRepository) List(ctx context.Context, filter *payment.Filter) ([]*payment.Payment, error) {
	var (
		conds []string
		args  []interface{}
	)

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter != nil {
		if filter.MerchantID != "" {
			add("merchant_id = $%d", filter.MerchantID)
		}
		if filter.Gateway != "" {
			add("gateway = $%d", filter.Gateway)
		}
		if len(filter.States) > 0 {
			placeholders := make([]string, 0, len(filter.States))
			for _, s := range filter.States {
				args = append(args, s)
				placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
			}
			conds = append(conds, "state IN ("+strings.Join(placeholders, ", ")+")")
		}
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, filter.GetLimit(), filter.GetOffset())
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var payments []*payment.Payment
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, mapError(err, "payment")
	}

	return payments, nil
}

// TransitionState applies the state change only while the current state is
// non-terminal. The guard runs inside the UPDATE itself so two concurrent
// writers cannot both win.
func (r *paymentRepository) TransitionState(ctx context.Context, id string, to types.PaymentState, utr *string) (bool, error) {
	query := `
	UPDATE payments SET
		state = $2,
		utr = COALESCE($3, utr),
		completed_at = CASE WHEN $4 THEN NOW() ELSE completed_at END,
		updated_at = NOW()
	WHERE id = $1
	  AND state NOT IN ($5, $6, $7, $8)
	`

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		id,
		to,
		utr,
		to.IsTerminal(),
		types.PaymentStateSuccess,
		types.PaymentStateFailed,
		types.PaymentStateExpired,
		types.PaymentStateCancelled,
	)
	if err != nil {
		return false, mapError(err, "payment")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, mapError(err, "payment")
	}

	if rows == 0 {
		// Either the payment does not exist or it is already terminal.
		// Distinguish so callers can surface missing payments.
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return false, getErr
		}
		return false, nil
	}

	return true, nil
}

const refundColumns = `
	id, payment_id, amount, state, initiated_at, completed_at,
	created_at, updated_at
`

func (r *paymentRepository) CreateRefund(ctx context.Context, refund *payment.Refund) error {
	query := `
	INSERT INTO refunds (` + refundColumns + `
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8
	)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		refund.ID,
		refund.PaymentID,
		refund.Amount,
		refund.State,
		refund.InitiatedAt,
		refund.CompletedAt,
		refund.CreatedAt,
		refund.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "refund")
	}

	return nil
}

func (r *paymentRepository) GetRefund(ctx context.Context, refundID string) (*payment.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1`

	var refund payment.Refund
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &refund, query, refundID); err != nil {
		return nil, mapError(err, "refund")
	}

	return &refund, nil
}

func (r *paymentRepository) GetRefundByPaymentID(ctx context.Context, paymentID string) (*payment.Refund, error) {
	// an active refund wins over closed attempts; ties go to the newest
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE payment_id = $1
	ORDER BY (state = 'FAILED'), created_at DESC LIMIT 1`

	var refund payment.Refund
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &refund, query, paymentID); err != nil {
		return nil, mapError(err, "refund")
	}

	return &refund, nil
}

func (r *paymentRepository) UpdateRefund(ctx context.Context, refund *payment.Refund) error {
	query := `
	UPDATE refunds SET
		state = $2,
		completed_at = $3,
		updated_at = $4
	WHERE id = $1
	`

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		refund.ID,
		refund.State,
		refund.CompletedAt,
		time.Now().UTC(),
	)
	if err != nil {
		return mapError(err, "refund")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return mapError(err, "refund")
	}
	if rows == 0 {
		return ierr.NewError("refund not found").
			WithHint("Refund does not exist").
			Mark(ierr.ErrNotFound)
	}

	return nil
}

func (r *paymentRepository) attachRefund(ctx context.Context, p *payment.Payment) (*payment.Payment, error) {
	refund, err := r.GetRefundByPaymentID(ctx, p.ID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return p, nil
		}
		return nil, err
	}
	p.Refund = refund
	return p, nil
}
