package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Database struct {
	Conn *sql.DB
}

func NewDatabase(dsn string) (*Database, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)
	return &Database{Conn: conn}, nil
}

func (d *Database) Close() error {
	return d.Conn.Close()
}

func (d *Database) AutoMigrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            external_id VARCHAR(64) UNIQUE NOT NULL,
            role VARCHAR(10) NOT NULL CHECK (role IN ('doctor', 'patient')),
            first_name VARCHAR(50) NOT NULL,
            last_name VARCHAR(50) NOT NULL,
            image_url TEXT NOT NULL DEFAULT '',
            phone VARCHAR(30) NOT NULL DEFAULT '',
            email VARCHAR(255) UNIQUE NOT NULL,
            specialization VARCHAR(100) NOT NULL DEFAULT '',
            years_of_experience INT NOT NULL DEFAULT 0,
            password VARCHAR(255) NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,

		`CREATE TABLE IF NOT EXISTS appointments (
            id UUID PRIMARY KEY,
            doctor_id UUID NOT NULL REFERENCES users(id),
            patient_id UUID NOT NULL REFERENCES users(id),
            date TIMESTAMPTZ NOT NULL,
            status VARCHAR(20) NOT NULL DEFAULT 'scheduled'
                CHECK (status IN ('scheduled', 'completed', 'cancelled')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,

		`CREATE TABLE IF NOT EXISTS chat_rooms (
            id UUID PRIMARY KEY,
            appointment_id UUID UNIQUE NOT NULL REFERENCES appointments(id) ON DELETE CASCADE,
            patient_id UUID NOT NULL REFERENCES users(id),
            doctor_id UUID NOT NULL REFERENCES users(id),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,

		`CREATE TABLE IF NOT EXISTS chat_messages (
            id UUID PRIMARY KEY,
            chat_room_id UUID NOT NULL REFERENCES chat_rooms(id) ON DELETE CASCADE,
            sender_id UUID NOT NULL REFERENCES users(id),
            content TEXT NOT NULL DEFAULT '',
            type VARCHAR(10) NOT NULL DEFAULT 'text'
                CHECK (type IN ('text', 'image', 'document', 'emoji')),
            file_url TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,

		`CREATE INDEX IF NOT EXISTS idx_chat_messages_room_created
            ON chat_messages (chat_room_id, created_at)`,

		`CREATE INDEX IF NOT EXISTS idx_chat_rooms_doctor ON chat_rooms (doctor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_rooms_patient ON chat_rooms (patient_id)`,
	}

	for _, query := range queries {
		if _, err := d.Conn.Exec(query); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
