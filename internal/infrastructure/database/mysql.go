package database

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/harshparashar-me/leadpilot-sub000/pkg/config"
)

// Connection wraps the MySQL pool.
// sql.DB is already safe for concurrent use and manages its own pool, so no
// extra locking is layered on top.
type Connection struct {
	db *sql.DB
}

var tlsOnce sync.Once

// DSN builds the driver DSN for cfg. Remote hosts get TLS.
func DSN(cfg config.Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = cfg.DBHost + ":" + cfg.DBPort
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}

	if isRemote(cfg.DBHost) {
		tlsOnce.Do(func() {
			if err := mysql.RegisterTLSConfig("leadpilot", &tls.Config{
				MinVersion: tls.VersionTLS12,
				ServerName: cfg.DBHost,
			}); err != nil {
				log.Printf("Failed to register TLS config: %v\n", err)
			}
		})
		mc.TLSConfig = "leadpilot"
	}
	return mc.FormatDSN()
}

func isRemote(host string) bool {
	return host != "" && host != "127.0.0.1" && host != "localhost"
}

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, cfg config.Config) (*Connection, error) {
	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// MaxIdleConns matches MaxOpenConns so connections are kept instead of
	// churned under load.
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(50)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{db: db}, nil
}

// DB returns the underlying *sql.DB connection
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.db.Close()
}
