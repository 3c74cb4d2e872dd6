package postgres

// SQL-миграции встроены в код для упрощения деплоя.
// Новые миграции только добавляются в конец списка.

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{1, "users", migration001Users},
	{2, "tasks", migration002Tasks},
	{3, "transactions", migration003Transactions},
	{4, "referrals_notifications", migration004ReferralsNotifications},
	{5, "transaction_fee", migration005TransactionFee},
}

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    email VARCHAR(255) NOT NULL,
    password_hash TEXT NOT NULL,
    wallet_balance BIGINT NOT NULL DEFAULT 0 CHECK (wallet_balance >= 0),
    withdrawable_balance BIGINT NOT NULL DEFAULT 0 CHECK (withdrawable_balance >= 0),
    referral_code VARCHAR(16) NOT NULL,
    referred_by VARCHAR(16) NOT NULL DEFAULT '',
    is_admin BOOLEAN NOT NULL DEFAULT FALSE,
    is_banned BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT users_email_key UNIQUE (email),
    CONSTRAINT users_referral_code_key UNIQUE (referral_code)
);
CREATE INDEX IF NOT EXISTS idx_users_is_admin ON users(is_admin) WHERE is_admin;
`

var migration002Tasks = `
CREATE TABLE IF NOT EXISTS tasks (
    id BIGSERIAL PRIMARY KEY,
    owner_id BIGINT NOT NULL REFERENCES users(id),
    name VARCHAR(255) NOT NULL,
    description TEXT NOT NULL,
    link TEXT NOT NULL,
    price_per_user BIGINT NOT NULL CHECK (price_per_user > 0),
    total_slots INTEGER NOT NULL CHECK (total_slots > 0),
    filled_slots INTEGER NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (filled_slots >= 0 AND filled_slots <= total_slots)
);
CREATE INDEX IF NOT EXISTS idx_tasks_owner_id ON tasks(owner_id);
CREATE INDEX IF NOT EXISTS idx_tasks_available ON tasks(created_at DESC) WHERE is_active;

CREATE TABLE IF NOT EXISTS task_submissions (
    id BIGSERIAL PRIMARY KEY,
    task_id BIGINT NOT NULL REFERENCES tasks(id),
    user_id BIGINT NOT NULL REFERENCES users(id),
    proof_text TEXT NOT NULL DEFAULT '',
    proof_image TEXT NOT NULL DEFAULT '',
    status VARCHAR(16) NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'approved', 'rejected')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT task_submissions_task_user_key UNIQUE (task_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_task_submissions_user_id ON task_submissions(user_id);
CREATE INDEX IF NOT EXISTS idx_task_submissions_pending ON task_submissions(task_id) WHERE status = 'pending';
`

var migration003Transactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    type VARCHAR(32) NOT NULL
        CHECK (type IN ('deposit', 'withdrawal', 'task_debit', 'task_credit', 'referral_bonus')),
    amount BIGINT NOT NULL CHECK (amount > 0),
    status VARCHAR(16) NOT NULL
        CHECK (status IN ('pending', 'completed', 'rejected')),
    network VARCHAR(32) NOT NULL DEFAULT '',
    phone_number VARCHAR(32) NOT NULL DEFAULT '',
    payment_name VARCHAR(255) NOT NULL DEFAULT '',
    payment_receipt TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_pending ON transactions(type, created_at) WHERE status = 'pending';
`

var migration004ReferralsNotifications = `
CREATE TABLE IF NOT EXISTS referrals (
    id BIGSERIAL PRIMARY KEY,
    referrer_id BIGINT NOT NULL REFERENCES users(id),
    referred_id BIGINT NOT NULL UNIQUE REFERENCES users(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_referrals_referrer_id ON referrals(referrer_id);

CREATE TABLE IF NOT EXISTS notifications (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    message TEXT NOT NULL,
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(user_id) WHERE NOT is_read;
`

// Комиссия пополнения фиксируется в заявке. Старым пополнениям
// проставляется комиссия по умолчанию.
var migration005TransactionFee = `
ALTER TABLE transactions ADD COLUMN IF NOT EXISTS fee BIGINT NOT NULL DEFAULT 0 CHECK (fee >= 0);
UPDATE transactions SET fee = 100 WHERE type = 'deposit' AND fee = 0;
`
