package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"
)

// WAL lets the workers read while a request enqueues.
const queueDSNParams = "?_journal=WAL&_timeout=5000&_busy_timeout=5000"

// Client runs the background queues on their own SQLite file so that queue
// churn never locks the main database.
type Client struct {
	queue   *backlite.Client
	db      *sql.DB
	workers int
	started atomic.Bool
}

// DatabasePath returns the queue database that belongs to the main database
// at mainDBPath: "data/bookshelf.db" becomes "data/bookshelf-tasks.db".
func DatabasePath(mainDBPath string) string {
	ext := filepath.Ext(mainDBPath)
	return strings.TrimSuffix(mainDBPath, ext) + "-tasks" + ext
}

// NewClient opens (creating if needed) the queue database next to mainDBPath
// and installs the backlite schema. Register the queues before Start.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	db, err := openQueueDB(DatabasePath(mainDBPath), cfg.Workers)
	if err != nil {
		return nil, err
	}

	queue, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{},
	})
	if err == nil {
		err = queue.Install()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("set up task queue: %w", err)
	}

	return &Client{queue: queue, db: db, workers: cfg.Workers}, nil
}

func openQueueDB(path string, workers int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+queueDSNParams)
	if err != nil {
		return nil, fmt.Errorf("open task database %s: %w", path, err)
	}
	// Every worker holds a connection while it runs; leave room for enqueues
	db.SetMaxOpenConns(workers + 5)
	db.SetMaxIdleConns(workers + 2)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// Register adds queues to the client. It must happen before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.queue.Register(q)
	}
}

// Start runs the workers until ctx is cancelled or Stop is called. Only the
// first call has an effect.
func (c *Client) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	log.Info().Int("workers", c.workers).Msg("Task queue started")
	c.queue.Start(ctx)
}

// Stop waits for running tasks until ctx expires. It reports whether every
// worker finished in time; a client that never started stops trivially.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.started.Load() {
		return true
	}
	finished := c.queue.Stop(ctx)
	if finished {
		log.Info().Msg("Task queue stopped")
	} else {
		log.Warn().Msg("Task queue stop timed out with tasks still running")
	}
	return finished
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// Add starts an operation to enqueue one or more tasks.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.queue.Add(tasks...)
}

// queueLogger implements backlite.Logger on top of zerolog.
type queueLogger struct{}

func (queueLogger) Info(message string, params ...any) {
	log.Info().Str("component", "tasks").Fields(params).Msg(message)
}

func (queueLogger) Error(message string, params ...any) {
	log.Error().Str("component", "tasks").Fields(params).Msg(message)
}
