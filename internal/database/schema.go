package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied statement by statement at startup.  Every statement is
// idempotent so restarts against an existing database are safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name          VARCHAR(100)  NOT NULL,
		email         VARCHAR(255)  NOT NULL,
		password_hash VARCHAR(255)  NOT NULL,
		role          ENUM('USER','ADMIN') NOT NULL DEFAULT 'USER',
		created_at    DATETIME      NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_token_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS cinemas (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name       VARCHAR(150) NOT NULL,
		location   VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_cinemas_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS shows (
		id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		cinema_id       BIGINT UNSIGNED NOT NULL,
		name            VARCHAR(200)    NOT NULL,
		show_time       DATETIME        NOT NULL,
		seats_available INT UNSIGNED    NOT NULL,
		created_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_shows_cinema_time (cinema_id, show_time),
		KEY idx_shows_name (name),
		KEY idx_shows_time (show_time),
		CONSTRAINT fk_shows_cinema FOREIGN KEY (cinema_id) REFERENCES cinemas(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS tickets (
		id                BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		show_id           BIGINT UNSIGNED NOT NULL,
		user_id           BIGINT UNSIGNED NOT NULL,
		number_of_tickets INT UNSIGNED    NOT NULL,
		movie             VARCHAR(200)    NOT NULL,
		show_time         DATETIME        NOT NULL,
		created_at        DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_tickets_user (user_id, show_time),
		KEY idx_tickets_show (show_id),
		CONSTRAINT fk_tickets_show FOREIGN KEY (show_id) REFERENCES shows(id),
		CONSTRAINT fk_tickets_user FOREIGN KEY (user_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// InitSchema creates any missing tables.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
