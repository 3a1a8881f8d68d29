package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

type conversationRecord struct {
	bun.BaseModel `bun:"table:conversation_checkpoints"`

	ThreadID  string    `bun:"thread_id,pk"`
	Payload   string    `bun:"payload,type:jsonb,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// PostgresStore keeps one checkpoint row per thread.
type PostgresStore struct {
	db *bun.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	store, err := NewPostgresStoreWithDB(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func NewPostgresStoreWithDB(ctx context.Context, db *bun.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	if _, err := db.NewCreateTable().
		Model((*conversationRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("create checkpoint table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Load(ctx context.Context, threadID string) (*Conversation, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, ErrInvalidThread
	}
	var rec conversationRecord
	err := s.db.NewSelect().
		Model(&rec).
		Where("thread_id = ?", threadID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select checkpoint: %w", err)
	}
	return decodeConversation([]byte(rec.Payload))
}

func (s *PostgresStore) Save(ctx context.Context, conv *Conversation) error {
	payload, err := encodeConversation(conv)
	if err != nil {
		return err
	}
	rec := &conversationRecord{
		ThreadID:  conv.ThreadID,
		Payload:   string(payload),
		UpdatedAt: conv.UpdatedAt,
	}
	if _, err := upsertQuery(s.db, rec).Exec(ctx); err != nil {
		return fmt.Errorf("upsert checkpoint: %w", err)
	}
	return nil
}

func upsertQuery(db bun.IDB, rec *conversationRecord) *bun.InsertQuery {
	return db.NewInsert().
		Model(rec).
		On("CONFLICT (thread_id) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at")
}

func (s *PostgresStore) Delete(ctx context.Context, threadID string) error {
	if strings.TrimSpace(threadID) == "" {
		return ErrInvalidThread
	}
	if _, err := s.db.NewDelete().
		Model((*conversationRecord)(nil)).
		Where("thread_id = ?", threadID).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
