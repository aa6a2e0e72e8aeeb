package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createExtension,
		createProfilesTable,
		createShowsTable,
		createPaymentsTable,
		createTicketsTable,
		createSubscriptionsTable,
		createNotificationsTable,
		createPaymentsCheckoutIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createExtension = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`

const createProfilesTable = `
CREATE TABLE IF NOT EXISTS profiles (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    user_id UUID UNIQUE NOT NULL,
    email VARCHAR(255) UNIQUE NOT NULL,
    display_name VARCHAR(255) NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createShowsTable = `
CREATE TABLE IF NOT EXISTS shows (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    title VARCHAR(500) NOT NULL,
    price BIGINT NOT NULL DEFAULT 0,
    niche VARCHAR(50) NOT NULL DEFAULT '',
    producer_id UUID NOT NULL REFERENCES profiles(id),
    is_featured BOOLEAN NOT NULL DEFAULT FALSE,
    venue VARCHAR(500),
    date TIMESTAMP
);`

const createPaymentsTable = `
CREATE TABLE IF NOT EXISTS payments (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    user_id UUID NOT NULL,
    paymongo_checkout_id VARCHAR(255) UNIQUE NOT NULL,
    paymongo_payment_id VARCHAR(255),
    amount BIGINT NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'initialized',
    description TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('initialized', 'pending', 'paid', 'failed'))
);`

const createTicketsTable = `
CREATE TABLE IF NOT EXISTS tickets (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    show_id UUID NOT NULL REFERENCES shows(id),
    user_id UUID,
    customer_email VARCHAR(255),
    payment_id UUID UNIQUE NOT NULL REFERENCES payments(id),
    status VARCHAR(20) NOT NULL DEFAULT 'confirmed',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('confirmed', 'cancelled'))
);`

const createSubscriptionsTable = `
CREATE TABLE IF NOT EXISTS subscriptions (
    user_id UUID PRIMARY KEY,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    tier VARCHAR(20) NOT NULL DEFAULT 'pro',
    current_period_start TIMESTAMP NOT NULL,
    current_period_end TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createNotificationsTable = `
CREATE TABLE IF NOT EXISTS notifications (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    recipient_id UUID NOT NULL,
    actor_id UUID,
    type VARCHAR(50) NOT NULL,
    title VARCHAR(255) NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    link VARCHAR(500),
    read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

const createPaymentsCheckoutIndex = `
CREATE INDEX IF NOT EXISTS payments_user_created_idx
ON payments (user_id, created_at DESC);`
