// Package tasks runs background work on a SQLite-backed queue. The only
// queue in the current scope prefetches catalogue descriptions for newly
// favorited works.
package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// tasksDBSuffix names the queue database relative to the application
// database, so queue churn never contends with application writes.
const tasksDBSuffix = "-tasks"

// Config holds queue settings; values come from the application config.
type Config struct {
	Workers         int
	ReleaseAfter    time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    5 * time.Minute,
		CleanupInterval: time.Hour,
	}
}

// Client owns the queue database and the backlite worker pool. Queues are
// registered at construction; workers run only between Start and Stop.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	config Config

	mu      sync.RWMutex
	started bool
}

func NewClient(mainDBPath string, cfg Config, queues ...backlite.Queue) (*Client, error) {
	db, err := sql.Open("sqlite3", queueDBPath(mainDBPath)+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers + 2)
	db.SetMaxIdleConns(cfg.Workers + 1)
	db.SetConnMaxLifetime(time.Hour)

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create backlite client: %w", err)
	}

	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install backlite schema: %w", err)
	}

	for _, q := range queues {
		client.Register(q)
	}

	return &Client{client: client, db: db, config: cfg}, nil
}

// queueDBPath derives the queue database path from the application database
// path ("./app.db" -> "./app-tasks.db").
func queueDBPath(mainDBPath string) string {
	if ext := filepath.Ext(mainDBPath); ext != "" {
		return strings.TrimSuffix(mainDBPath, ext) + tasksDBSuffix + ext
	}
	return mainDBPath + tasksDBSuffix
}

// Start begins processing tasks; non-blocking.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	log.Printf("Task queue started with %d workers", c.config.Workers)
	c.client.Start(ctx)
}

// Stop shuts the queue down, waiting for active tasks up to the context
// deadline.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	if !c.started {
		c.mu.RUnlock()
		return true
	}
	c.mu.RUnlock()

	success := c.client.Stop(ctx)
	if !success {
		log.Println("Task queue stopped with timeout (some tasks may not have completed)")
	}
	return success
}

// Close releases the database. Call after Stop.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Add starts an operation to enqueue one or more tasks.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

type queueLogger struct{}

func (queueLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (queueLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
