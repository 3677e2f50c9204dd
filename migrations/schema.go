// Package migrations holds the database schema applied by cmd/migrate.
package migrations

// Schema is idempotent; every statement uses IF NOT EXISTS so re-running
// the migration against an existing database is safe.
const Schema = `
CREATE TABLE IF NOT EXISTS merchants (
	id                    TEXT PRIMARY KEY,
	name                  TEXT NOT NULL,
	status                TEXT NOT NULL DEFAULT 'pending',
	per_transaction_limit NUMERIC(18, 2) NOT NULL DEFAULT 0,
	uat_api_key           TEXT NOT NULL DEFAULT '',
	uat_secret_key        TEXT NOT NULL DEFAULT '',
	prod_api_key          TEXT NOT NULL DEFAULT '',
	prod_secret_key       TEXT NOT NULL DEFAULT '',
	webhook_url           TEXT NOT NULL DEFAULT '',
	webhook_secret        TEXT NOT NULL DEFAULT '',
	webhook_enabled       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_merchants_uat_api_key ON merchants (uat_api_key) WHERE uat_api_key <> '';
CREATE UNIQUE INDEX IF NOT EXISTS idx_merchants_prod_api_key ON merchants (prod_api_key) WHERE prod_api_key <> '';

CREATE TABLE IF NOT EXISTS payments (
	id                   TEXT PRIMARY KEY,
	merchant_order_id    TEXT NOT NULL,
	order_id             TEXT NOT NULL,
	merchant_id          TEXT NOT NULL REFERENCES merchants (id),
	gateway              TEXT NOT NULL,
	gateway_txn_id       TEXT,
	amount               NUMERIC(18, 2) NOT NULL,
	currency             TEXT NOT NULL DEFAULT 'INR',
	state                TEXT NOT NULL DEFAULT 'CREATED',
	checkout_type        TEXT NOT NULL DEFAULT 'STANDARD',
	payment_mode         TEXT NOT NULL,
	utr                  TEXT,
	payment_initiated_at TIMESTAMPTZ NOT NULL,
	completed_at         TIMESTAMPTZ,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_merchant_order ON payments (merchant_id, merchant_order_id, gateway);
CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_order_id ON payments (order_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_gateway_txn_id ON payments (gateway_txn_id) WHERE gateway_txn_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_payments_merchant_state ON payments (merchant_id, state);

CREATE TABLE IF NOT EXISTS refunds (
	id           TEXT PRIMARY KEY,
	payment_id   TEXT NOT NULL REFERENCES payments (id),
	amount       NUMERIC(18, 2) NOT NULL,
	state        TEXT NOT NULL DEFAULT 'PENDING',
	initiated_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- one live refund per payment; FAILED attempts stay behind and may be retried
CREATE UNIQUE INDEX IF NOT EXISTS idx_refunds_payment_active ON refunds (payment_id) WHERE state <> 'FAILED';
CREATE INDEX IF NOT EXISTS idx_refunds_payment_id ON refunds (payment_id);

CREATE TABLE IF NOT EXISTS inbound_webhook_events (
	id                 TEXT PRIMARY KEY,
	gateway            TEXT NOT NULL,
	event              TEXT NOT NULL DEFAULT '',
	gateway_webhook_id TEXT NOT NULL,
	raw_payload        BYTEA,
	parsed_payload     JSONB,
	signature          TEXT NOT NULL DEFAULT '',
	signature_verified BOOLEAN NOT NULL DEFAULT FALSE,
	status             TEXT NOT NULL DEFAULT 'PENDING',
	retries            INTEGER NOT NULL DEFAULT 0,
	last_error         TEXT,
	payment_id         TEXT,
	refund_id          TEXT,
	merchant_id        TEXT,
	processed_at       TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_inbound_events_gateway_webhook ON inbound_webhook_events (gateway, gateway_webhook_id);
CREATE INDEX IF NOT EXISTS idx_inbound_events_status ON inbound_webhook_events (status);

CREATE TABLE IF NOT EXISTS webhook_deliveries (
	id              TEXT PRIMARY KEY,
	merchant_id     TEXT NOT NULL REFERENCES merchants (id),
	event_type      TEXT NOT NULL,
	payment_id      TEXT NOT NULL DEFAULT '',
	url             TEXT NOT NULL,
	payload         JSONB,
	signature       TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'PENDING',
	attempts        INTEGER NOT NULL DEFAULT 0,
	max_attempts    INTEGER NOT NULL DEFAULT 3,
	next_retry_at   TIMESTAMPTZ,
	retry_delay_ms  BIGINT NOT NULL DEFAULT 0,
	last_error      TEXT,
	idempotency_key TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_deliveries_idempotency_key ON webhook_deliveries (idempotency_key);
CREATE INDEX IF NOT EXISTS idx_deliveries_retry ON webhook_deliveries (status, next_retry_at);
`
