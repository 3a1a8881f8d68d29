package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	ErrStateNotFound   = errors.New("conversation state not found")
	ErrNilConversation = errors.New("conversation is nil")
	ErrInvalidThread   = errors.New("thread id is empty")
)

const (
	defaultStoreKeyPrefix = "bank:thread:"
	defaultStoreTTL       = 24 * time.Hour
)

// Store is the checkpoint contract used by the orchestrator. Concurrent runs
// on the same thread id are not supported by any implementation.
type Store interface {
	Load(ctx context.Context, threadID string) (*Conversation, error)
	Save(ctx context.Context, conv *Conversation) error
	Delete(ctx context.Context, threadID string) error
}

type storeOptions struct {
	keyPrefix  string
	ttl        time.Duration
	httpClient *http.Client
}

// StoreOption customizes the key-value backed stores.
type StoreOption func(*storeOptions)

func WithKeyPrefix(prefix string) StoreOption {
	return func(o *storeOptions) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			o.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(o *storeOptions) {
		o.ttl = ttl
	}
}

func WithHTTPClient(client *http.Client) StoreOption {
	return func(o *storeOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

func applyStoreOptions(opts []StoreOption) (storeOptions, error) {
	o := storeOptions{
		keyPrefix: defaultStoreKeyPrefix,
		ttl:       defaultStoreTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.ttl < 0 {
		return o, errors.New("ttl must be >= 0")
	}
	return o, nil
}

func storeKey(prefix, threadID string) (string, error) {
	if strings.TrimSpace(threadID) == "" {
		return "", ErrInvalidThread
	}
	return strings.TrimSpace(prefix) + threadID, nil
}

func encodeConversation(conv *Conversation) ([]byte, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}
	if strings.TrimSpace(conv.ThreadID) == "" {
		return nil, ErrInvalidThread
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = time.Now().UTC()
	} else {
		conv.UpdatedAt = conv.UpdatedAt.UTC()
	}
	payload, err := json.Marshal(conv)
	if err != nil {
		return nil, fmt.Errorf("marshal conversation: %w", err)
	}
	return payload, nil
}

func decodeConversation(payload []byte) (*Conversation, error) {
	var conv Conversation
	if err := json.Unmarshal(payload, &conv); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	if err := conv.Validate(); err != nil {
		return nil, fmt.Errorf("invalid conversation loaded from store: %w", err)
	}
	return &conv, nil
}

// MemoryStore keeps encoded checkpoints in process memory.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, threadID string) (*Conversation, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, ErrInvalidThread
	}
	s.mu.RLock()
	payload, ok := s.m[threadID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrStateNotFound
	}
	return decodeConversation(payload)
}

func (s *MemoryStore) Save(_ context.Context, conv *Conversation) error {
	payload, err := encodeConversation(conv)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[string][]byte)
	}
	s.m[conv.ThreadID] = payload
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, threadID string) error {
	if strings.TrimSpace(threadID) == "" {
		return ErrInvalidThread
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, threadID)
	return nil
}
