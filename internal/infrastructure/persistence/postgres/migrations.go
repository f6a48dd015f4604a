package postgres

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_accounts",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_ledger",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_streaks",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "create_rewards",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS accounts (
	user_id          TEXT PRIMARY KEY,
	display_name     TEXT NOT NULL,
	level            INTEGER NOT NULL DEFAULT 1,
	total_points     BIGINT NOT NULL DEFAULT 0,
	available_points BIGINT NOT NULL DEFAULT 0 CHECK (available_points >= 0),
	lifetime_points  BIGINT NOT NULL DEFAULT 0,
	current_streak   INTEGER NOT NULL DEFAULT 0,
	longest_streak   INTEGER NOT NULL DEFAULT 0,
	achievements     JSONB NOT NULL DEFAULT '[]',
	preferences      JSONB NOT NULL DEFAULT '{}',
	created_at       TIMESTAMP WITH TIME ZONE NOT NULL,
	last_activity_at TIMESTAMP WITH TIME ZONE NOT NULL,
	updated_at       TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_total_points ON accounts (total_points DESC);
`

const migration001Down = `DROP TABLE IF EXISTS accounts;`

const migration002Up = `
CREATE TABLE IF NOT EXISTS transactions (
	sequence        BIGSERIAL PRIMARY KEY,
	id              UUID NOT NULL UNIQUE,
	user_id         TEXT NOT NULL,
	direction       TEXT NOT NULL CHECK (direction IN ('earn', 'spend')),
	category        TEXT NOT NULL,
	amount          BIGINT NOT NULL CHECK (amount > 0),
	description     TEXT NOT NULL DEFAULT '',
	source          TEXT NOT NULL,
	metadata        JSONB,
	idempotency_key TEXT,
	created_at      TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions (user_id, sequence DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions (user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_transactions_earned ON transactions (created_at) WHERE direction = 'earn';
CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_idempotency
	ON transactions (user_id, idempotency_key)
	WHERE idempotency_key IS NOT NULL;
`

const migration002Down = `DROP TABLE IF EXISTS transactions;`

const migration003Up = `
CREATE TABLE IF NOT EXISTS streaks (
	user_id          TEXT NOT NULL,
	activity_type    TEXT NOT NULL,
	current_streak   INTEGER NOT NULL DEFAULT 0,
	longest_streak   INTEGER NOT NULL DEFAULT 0,
	last_activity_at TIMESTAMP WITH TIME ZONE,
	started_at       TIMESTAMP WITH TIME ZONE,
	active           BOOLEAN NOT NULL DEFAULT TRUE,
	updated_at       TIMESTAMP WITH TIME ZONE NOT NULL,
	PRIMARY KEY (user_id, activity_type)
);

CREATE INDEX IF NOT EXISTS idx_streaks_stale ON streaks (last_activity_at) WHERE active;
`

const migration003Down = `DROP TABLE IF EXISTS streaks;`

const migration004Up = `
CREATE TABLE IF NOT EXISTS rewards (
	id                    TEXT PRIMARY KEY,
	name                  TEXT NOT NULL,
	description           TEXT NOT NULL DEFAULT '',
	cost                  BIGINT NOT NULL CHECK (cost > 0),
	category              TEXT NOT NULL,
	availability          TEXT NOT NULL,
	stock                 INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
	active                BOOLEAN NOT NULL DEFAULT TRUE,
	min_level             INTEGER NOT NULL DEFAULT 0,
	required_achievements JSONB NOT NULL DEFAULT '[]',
	season_start          TIMESTAMP WITH TIME ZONE,
	season_end            TIMESTAMP WITH TIME ZONE,
	created_at            TIMESTAMP WITH TIME ZONE NOT NULL,
	updated_at            TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE TABLE IF NOT EXISTS redemption_tokens (
	id             UUID PRIMARY KEY,
	user_id        TEXT NOT NULL,
	reward_id      TEXT NOT NULL REFERENCES rewards (id),
	transaction_id UUID NOT NULL,
	code           TEXT NOT NULL,
	status         TEXT NOT NULL CHECK (status IN ('issued', 'redeemed', 'expired')),
	issued_at      TIMESTAMP WITH TIME ZONE NOT NULL,
	expires_at     TIMESTAMP WITH TIME ZONE NOT NULL,
	redeemed_at    TIMESTAMP WITH TIME ZONE,
	location       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_tokens_user ON redemption_tokens (user_id, issued_at DESC);
CREATE INDEX IF NOT EXISTS idx_tokens_expiring ON redemption_tokens (expires_at) WHERE status = 'issued';
`

const migration004Down = `
DROP TABLE IF EXISTS redemption_tokens;
DROP TABLE IF EXISTS rewards;
`
