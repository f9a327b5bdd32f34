package storage

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	appledger "github.com/mtax/backend/internal/application/ledger"
)

var _ appledger.ProofStorage = (*MemoryProofStorage)(nil)

// MemoryProofStorage keeps documents in process memory. It backs local runs
// with object storage disabled; nothing survives a restart.
type MemoryProofStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]StoredObject
}

// StoredObject is a document held by MemoryProofStorage
type StoredObject struct {
	Data        []byte
	ContentType string
}

// NewMemoryProofStorage returns an empty store rooted at baseURL
func NewMemoryProofStorage(baseURL string) *MemoryProofStorage {
	if baseURL == "" {
		baseURL = "memory://proofs"
	}
	return &MemoryProofStorage{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]StoredObject),
	}
}

func (m *MemoryProofStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[storageKey] = StoredObject{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

func (m *MemoryProofStorage) GenerateUploadURL(_ context.Context, storageKey, _ string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, ErrEmptyKey
	}
	expiresAt := time.Now().Add(expiresIn)
	q := url.Values{"expires": {expiresAt.UTC().Format(time.RFC3339)}}
	return m.ObjectURL(storageKey) + "?" + q.Encode(), expiresAt, nil
}

func (m *MemoryProofStorage) ObjectURL(storageKey string) string {
	return m.BaseURL + "/" + strings.TrimLeft(storageKey, "/")
}

// Get returns a stored document
func (m *MemoryProofStorage) Get(storageKey string) (StoredObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[storageKey]
	return obj, ok
}
