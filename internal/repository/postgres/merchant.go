package postgres

import (
	"context"
	"time"

	"github.com/rai-abhi24/cgpey/internal/domain/merchant"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/postgres"
	"github.com/rai-abhi24/cgpey/internal/types"
)

type merchantRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewMerchantRepository(db *postgres.DB, logger *logger.Logger) merchant.Repository {
	return &merchantRepository{db: db, logger: logger}
}

const merchantColumns = `
	id, name, status, per_transaction_limit,
	uat_api_key, uat_secret_key, prod_api_key, prod_secret_key,
	webhook_url, webhook_secret, webhook_enabled,
	created_at, updated_at
`

func (r *merchantRepository) scanMerchant(row interface {
	Scan(dest ...interface{}) error
}) (*merchant.Merchant, error) {
	var m merchant.Merchant
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Status,
		&m.PerTransactionLimit,
		&m.UATKeys.APIKey,
		&m.UATKeys.SecretKey,
		&m.ProdKeys.APIKey,
		&m.ProdKeys.SecretKey,
		&m.WebhookURL,
		&m.WebhookSecret,
		&m.WebhookEnabled,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "merchant")
	}
	return &m, nil
}

func (r *merchantRepository) Create(ctx context.Context, m *merchant.Merchant) error {
	query := `
	INSERT INTO merchants (` + merchantColumns + `
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
	)
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		m.ID,
		m.Name,
		m.Status,
		m.PerTransactionLimit,
		m.UATKeys.APIKey,
		m.UATKeys.SecretKey,
		m.ProdKeys.APIKey,
		m.ProdKeys.SecretKey,
		m.WebhookURL,
		m.WebhookSecret,
		m.WebhookEnabled,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "merchant")
	}

	return nil
}

func (r *merchantRepository) Get(ctx context.Context, id string) (*merchant.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE id = $1`
	return r.scanMerchant(r.db.GetQuerier(ctx).QueryRowxContext(ctx, query, id))
}

func (r *merchantRepository) GetByAPIKey(ctx context.Context, apiKey string) (*merchant.Merchant, types.KeyMode, error) {
	query := `
	SELECT ` + merchantColumns + `
	FROM merchants
	WHERE uat_api_key = $1 OR prod_api_key = $1
	`

	m, err := r.scanMerchant(r.db.GetQuerier(ctx).QueryRowxContext(ctx, query, apiKey))
	if err != nil {
		return nil, "", err
	}

	if m.UATKeys.APIKey == apiKey {
		return m, types.KeyModeUAT, nil
	}
	return m, types.KeyModeProd, nil
}

func (r *merchantRepository) Update(ctx context.Context, m *merchant.Merchant) error {
	query := `
	UPDATE merchants SET
		name = $2,
		status = $3,
		per_transaction_limit = $4,
		webhook_url = $5,
		webhook_secret = $6,
		webhook_enabled = $7,
		updated_at = $8
	WHERE id = $1
	`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		m.ID,
		m.Name,
		m.Status,
		m.PerTransactionLimit,
		m.WebhookURL,
		m.WebhookSecret,
		m.WebhookEnabled,
		time.Now().UTC(),
	)
	if err != nil {
		return mapError(err, "merchant")
	}

	return nil
}
