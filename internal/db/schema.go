package db

import (
	"database/sql"
	"fmt"
	"log"
)

var ownedTables = []struct {
	name string
	ddl  string
}{
	{"payments", `
CREATE TABLE IF NOT EXISTS payments (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	client_id BIGINT NOT NULL,
	amount DECIMAL(10,2) NOT NULL DEFAULT 0,
	subtotal DECIMAL(10,2) NOT NULL DEFAULT 0,
	discount_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
	tax_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
	tips DECIMAL(10,2) NOT NULL DEFAULT 0,
	commission DECIMAL(10,2) NOT NULL DEFAULT 0,
	total DECIMAL(10,2) NOT NULL DEFAULT 0,
	payment_method VARCHAR(20) NOT NULL,
	status VARCHAR(20) NOT NULL,
	transaction_id VARCHAR(80) NOT NULL,
	idempotency_key VARCHAR(128) NULL,
	stripe_payment_intent_id VARCHAR(255) NULL,
	last_error VARCHAR(500) NULL,
	notes TEXT NULL,
	created_by BIGINT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_transaction_id (transaction_id),
	UNIQUE KEY uniq_idempotency_key (idempotency_key),
	KEY idx_client (client_id),
	KEY idx_status (status),
	KEY idx_intent (stripe_payment_intent_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`},
	{"payment_items", `
CREATE TABLE IF NOT EXISTS payment_items (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	payment_id BIGINT NOT NULL,
	item_type VARCHAR(20) NOT NULL,
	item_id BIGINT NOT NULL,
	item_name VARCHAR(255) NOT NULL,
	price DECIMAL(10,2) NOT NULL,
	quantity INT NOT NULL,
	subtotal DECIMAL(10,2) NOT NULL,
	KEY idx_payment (payment_id),
	CONSTRAINT fk_payment_items_payment FOREIGN KEY (payment_id) REFERENCES payments(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`},
	{"audit_logs", `
CREATE TABLE IF NOT EXISTS audit_logs (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	user_id BIGINT NULL,
	action VARCHAR(100) NOT NULL,
	entity_type VARCHAR(50) NOT NULL,
	entity_id BIGINT NULL,
	details TEXT NULL,
	ip_address VARCHAR(64) NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	KEY idx_action (action),
	KEY idx_entity (entity_type, entity_id),
	KEY idx_created (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`},
}

// checkoutColumns are added to a payments table that predates card checkout.
var checkoutColumns = []struct {
	name string
	ddl  string
}{
	{"idempotency_key", "ALTER TABLE payments ADD COLUMN idempotency_key VARCHAR(128) NULL, ADD UNIQUE KEY uniq_idempotency_key (idempotency_key)"},
	{"stripe_payment_intent_id", "ALTER TABLE payments ADD COLUMN stripe_payment_intent_id VARCHAR(255) NULL, ADD KEY idx_intent (stripe_payment_intent_id)"},
	{"last_error", "ALTER TABLE payments ADD COLUMN last_error VARCHAR(500) NULL"},
	{"created_by", "ALTER TABLE payments ADD COLUMN created_by BIGINT NULL"},
}

// EnsureSchema creates the tables this service owns when they are missing and
// backfills checkout columns on an existing payments table.
// Catalog, client, user and compliance tables belong to the main application.
func EnsureSchema(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("db not available")
	}
	for _, t := range ownedTables {
		if HasTable(db, t.name) {
			if t.name == "payments" {
				if err := ensureCheckoutColumns(db); err != nil {
					return err
				}
			}
			continue
		}
		if _, err := db.Exec(t.ddl); err != nil {
			return fmt.Errorf("create %s: %w", t.name, err)
		}
		log.Printf("[SCHEMA] created table %s", t.name)
	}
	return nil
}

func ensureCheckoutColumns(db *sql.DB) error {
	for _, c := range checkoutColumns {
		if HasColumn(db, "payments", c.name) {
			continue
		}
		if _, err := db.Exec(c.ddl); err != nil {
			return fmt.Errorf("add payments.%s: %w", c.name, err)
		}
		log.Printf("[SCHEMA] added column payments.%s", c.name)
	}
	return nil
}
