// Файл: internal/db/db.go
package db

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

var DB *sql.DB // Глобальная переменная для хранения подключения к БД

// InitDB инициализирует соединение с базой данных и выполняет миграции.
func InitDB(databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL не установлена")
	}

	var err error
	DB, err = sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("ошибка подключения к базе данных: %v", err)
	}

	DB.SetMaxOpenConns(50)
	DB.SetMaxIdleConns(20)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err := DB.Ping(); err != nil {
		return fmt.Errorf("ошибка проверки соединения с базой данных: %v", err)
	}

	log.Println("Успешное подключение к базе данных.")

	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции для создания таблиц: %v", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			log.Printf("Откат транзакции из-за ошибки: %v", err)
			tx.Rollback()
		}
	}()

	createTablesSQL := `
        CREATE TABLE IF NOT EXISTS operators (
            chat_id BIGINT PRIMARY KEY,
            username VARCHAR(100),
            first_name VARCHAR(100),
            role TEXT NOT NULL DEFAULT 'operator',
            created_at TIMESTAMP NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMP NOT NULL DEFAULT NOW()
        );

        CREATE TABLE IF NOT EXISTS orders (
            id TEXT PRIMARY KEY,
            status TEXT NOT NULL DEFAULT 'pending',
            operator_chat_id BIGINT,
            crypto_amount DOUBLE PRECISION NOT NULL,
            crypto_currency TEXT NOT NULL,
            uah_amount DOUBLE PRECISION NOT NULL,
            deposit_address TEXT NOT NULL,
            client_chat_id BIGINT,
            client_contact TEXT,
            cancel_reason_id TEXT,
            created_at TIMESTAMP NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
            processed_at TIMESTAMP
        );

        CREATE TABLE IF NOT EXISTS tracked_messages (
            order_id TEXT NOT NULL REFERENCES orders(id),
            notification_type TEXT NOT NULL,
            chat_id BIGINT NOT NULL,
            message_id INTEGER NOT NULL,
            topic_id INTEGER NOT NULL DEFAULT 0,
            updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
            PRIMARY KEY (order_id, notification_type)
        );

        CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
        CREATE INDEX IF NOT EXISTS idx_orders_operator ON orders(operator_chat_id);
        CREATE INDEX IF NOT EXISTS idx_tracked_messages_order ON tracked_messages(order_id);
    `
	if _, err = tx.Exec(createTablesSQL); err != nil {
		return fmt.Errorf("ошибка создания таблиц: %v", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции создания таблиц: %v", err)
	}

	if err = runMigrations(); err != nil {
		return err
	}

	log.Println("Миграции базы данных выполнены.")
	return nil
}

// runMigrations выполняет идемпотентные доработки схемы поверх
// базового CREATE TABLE IF NOT EXISTS.
func runMigrations() error {
	migrations := []string{
		`ALTER TABLE orders ADD COLUMN IF NOT EXISTS client_contact TEXT`,
		`ALTER TABLE orders ADD COLUMN IF NOT EXISTS processed_at TIMESTAMP`,
		`ALTER TABLE tracked_messages ADD COLUMN IF NOT EXISTS topic_id INTEGER NOT NULL DEFAULT 0`,
	}
	for _, m := range migrations {
		if _, err := DB.Exec(m); err != nil {
			return fmt.Errorf("ошибка миграции (%s): %v", m, err)
		}
	}
	return nil
}

// CloseDB закрывает соединение с базой данных.
func CloseDB() {
	if DB != nil {
		if err := DB.Close(); err != nil {
			log.Printf("Ошибка закрытия соединения с БД: %v", err)
		}
	}
}
