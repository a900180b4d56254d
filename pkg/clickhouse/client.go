package clickhouse

import (
    "context"
    "database/sql"
    "fmt"
    "net/url"
    "time"

    _ "github.com/ClickHouse/clickhouse-go/v2"
)

// Client owns the ClickHouse connection pool.
type Client struct {
    db *sql.DB
}

// NewClient opens a pool and verifies connectivity with a ping.
func NewClient(opts ...ClientOption) (*Client, error) {
    cfg := &ClientConfig{
        MaxOpenConns:    10,
        MaxIdleConns:    5,
        ConnMaxLifetime: 5 * time.Minute,
        DialTimeout:     5 * time.Second,
        ReadTimeout:     10 * time.Second,
        WriteTimeout:    10 * time.Second,
    }
    for _, opt := range opts {
        opt(cfg)
    }
    if cfg.Host == "" {
        return nil, fmt.Errorf("host is required")
    }

    db, err := sql.Open("clickhouse", cfg.dsn())
    if err != nil {
        return nil, fmt.Errorf("clickhouse open: %w", err)
    }
    db.SetMaxOpenConns(cfg.MaxOpenConns)
    db.SetMaxIdleConns(cfg.MaxIdleConns)
    db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("clickhouse ping: %w", err)
    }
    return &Client{db: db}, nil
}

// DB exposes the pool for direct queries.
func (c *Client) DB() *sql.DB { return c.db }

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
    return c.db.PingContext(ctx)
}

// Close closes the pool.
func (c *Client) Close() error {
    if c.db == nil {
        return nil
    }
    return c.db.Close()
}

// InitSchema runs idempotent DDL statements in order.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
    for _, stmt := range stmts {
        if _, err := c.db.ExecContext(ctx, stmt); err != nil {
            return fmt.Errorf("init schema: %w", err)
        }
    }
    return nil
}

func (cfg *ClientConfig) dsn() string {
    scheme := "clickhouse://"
    if cfg.UseHTTP {
        scheme = "clickhouse+http://"
    }

    params := url.Values{}
    if cfg.DialTimeout > 0 {
        params.Set("dial_timeout", cfg.DialTimeout.String())
    }
    if cfg.ReadTimeout > 0 {
        params.Set("read_timeout", cfg.ReadTimeout.String())
    }
    // write_timeout is rejected as a server setting on some versions,
    // so it stays client-side only.
    if cfg.MaxExecTime > 0 {
        params.Set("max_execution_time", fmt.Sprintf("%d", int(cfg.MaxExecTime.Seconds())))
    }
    if cfg.AsyncInsert {
        params.Set("async_insert", "1")
        if cfg.WaitForAsync {
            params.Set("wait_for_async_insert", "1")
        }
    }

    dsn := fmt.Sprintf("%s%s:%s@%s:%d/%s",
        scheme, cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
    if encoded := params.Encode(); encoded != "" {
        dsn += "?" + encoded
    }
    return dsn
}
