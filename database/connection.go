// database/connection.go
package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/bathywatch/backend/config"
	_ "github.com/go-sql-driver/mysql" // MariaDB driver
)

var DB *sql.DB

// InitDB initializes the database connection pool.
func InitDB(cfg config.DatabaseConfig) error {
	var err error
	// DSN: username:password@protocol(address)/dbname?param=value
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
	)

	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool settings
	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	// Ping the database to verify connection
	err = DB.Ping()
	if err != nil {
		DB.Close() // Close the connection if ping fails
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database!")
	return nil
}

// InitSchema ensures the baseline tables exist.
func InitSchema() error {
	if DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			email VARCHAR(255) NOT NULL UNIQUE,
			username VARCHAR(64) NOT NULL UNIQUE,
			full_name VARCHAR(255) NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			hashed_password VARCHAR(255) NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS bboxes (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			owner_id BIGINT NOT NULL,
			top_left_lat DOUBLE NOT NULL,
			top_left_lon DOUBLE NOT NULL,
			bottom_right_lat DOUBLE NOT NULL,
			bottom_right_lon DOUBLE NOT NULL,
			data_types VARCHAR(128) NOT NULL DEFAULT 'mbes',
			channel VARCHAR(16) NOT NULL DEFAULT 'email',
			webhook_url VARCHAR(512) NOT NULL DEFAULT '',
			last_checked_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_bboxes_owner (owner_id)
		)`,
		`CREATE TABLE IF NOT EXISTS data_orders (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			user_id BIGINT NOT NULL,
			bbox_id BIGINT NOT NULL,
			data_type VARCHAR(16) NOT NULL,
			noaa_ref_id VARCHAR(128) NOT NULL,
			check_status_url VARCHAR(512) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'initialized',
			download_url VARCHAR(512) NOT NULL DEFAULT '',
			ordered_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_data_orders_user (user_id),
			INDEX idx_data_orders_bbox (bbox_id)
		)`,
		`CREATE TABLE IF NOT EXISTS notification_events (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			bbox_id BIGINT NOT NULL,
			owner_id BIGINT NOT NULL,
			channel VARCHAR(16) NOT NULL,
			sources VARCHAR(128) NOT NULL,
			record_count INT NOT NULL,
			outcome VARCHAR(16) NOT NULL,
			detail TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_notification_events_bbox (bbox_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	log.Println("Database: schema initialized.")
	return nil
}

// CloseDB closes the database connection pool.
// Typically called on application shutdown.
func CloseDB() {
	if DB != nil {
		DB.Close()
		log.Println("Database connection closed.")
	}
}
