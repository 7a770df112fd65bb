package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zacxyonly/manga-api-parsers/internal/observability"
)

// DefaultAdminName is the name given to the bootstrap admin key.
const DefaultAdminName = "default-admin"

// usageFlushInterval is how often pending usage-counter updates are
// written to disk. Issuance and revocation persist synchronously;
// call counts are best-effort.
const usageFlushInterval = 30 * time.Second

// ErrInvalidTier indicates that key generation was asked for an
// unknown tier.
var ErrInvalidTier = errors.New("invalid tier")

// Store is the durable API key registry. The in-memory map is the
// source of truth; every issuance and revocation rewrites the backing
// file atomically (temp file + rename) before returning.
type Store struct {
	mu    sync.RWMutex
	keys  map[string]*Key
	order []*Key // insertion order, ascending CreatedAt

	path   string
	fileMu sync.Mutex // serializes file writes; never held with mu across I/O

	logger observability.Logger

	usageDirty atomic.Bool
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// Open loads the registry from path, starting empty (and minting a
// bootstrap admin key) when the file is missing or unreadable. A corrupt
// file is renamed aside rather than silently overwritten.
func Open(path string, logger observability.Logger) (*Store, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	s := &Store{
		keys:   make(map[string]*Key),
		path:   path,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	if len(s.order) == 0 {
		if err := s.bootstrap(); err != nil {
			return nil, fmt.Errorf("failed to bootstrap key registry: %w", err)
		}
	}

	go s.usageFlushLoop()

	return s, nil
}

// Generate mints, registers and persists a new key. The returned key
// carries the only copy of the raw token the store ever hands out.
func (s *Store) Generate(name string, tier Tier) (*Key, error) {
	if !tier.Valid() {
		return nil, ErrInvalidTier
	}

	token, err := s.mintToken()
	if err != nil {
		return nil, err
	}

	key := &Key{
		ID:        uuid.New().String(),
		Token:     token,
		Name:      name,
		Tier:      tier,
		CreatedAt: time.Now(),
	}
	key.active.Store(true)

	s.mu.Lock()
	s.keys[key.Token] = key
	s.order = append(s.order, key)
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		// The key remains usable for the life of the process even when
		// the registry cannot be written.
		s.logger.Error("key registry persistence failed, key is memory-only",
			observability.String("key_id", key.ID),
			observability.Error(err))
	}

	s.logger.Info("API key generated",
		observability.String("key_id", key.ID),
		observability.String("name", name),
		observability.String("tier", tier.String()))

	return key, nil
}

// mintToken generates a token that does not collide with any
// registered key.
func (s *Store) mintToken() (string, error) {
	for {
		token, err := NewToken()
		if err != nil {
			return "", err
		}
		s.mu.RLock()
		_, taken := s.keys[token]
		s.mu.RUnlock()
		if !taken {
			return token, nil
		}
	}
}

// Validate resolves a token to its key iff the key exists and is
// active, recording the use. Counter updates are atomic per key and are
// flushed to disk in the background.
func (s *Store) Validate(token string) (*Key, bool) {
	s.mu.RLock()
	key, ok := s.keys[token]
	s.mu.RUnlock()

	if !ok || !key.Active() {
		return nil, false
	}

	key.use(time.Now())
	s.usageDirty.Store(true)
	return key, true
}

// Revoke permanently deactivates a key. Revocation is idempotent; the
// return value reports whether the token was ever issued.
func (s *Store) Revoke(token string) bool {
	s.mu.RLock()
	key, ok := s.keys[token]
	s.mu.RUnlock()

	if !ok {
		return false
	}

	if key.revoke() {
		if err := s.persist(); err != nil {
			s.logger.Error("key registry persistence failed after revocation",
				observability.String("key_id", key.ID),
				observability.Error(err))
		}
		s.logger.Info("API key revoked",
			observability.String("key_id", key.ID),
			observability.String("name", key.Name))
	}
	return true
}

// List returns snapshots of every key, including revoked ones, ordered
// by creation time ascending.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.order))
	for _, key := range s.order {
		records = append(records, key.Snapshot())
	}
	return records
}

// Count returns the number of registered keys, revoked included.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Close stops the background usage flusher and writes any pending
// usage counters.
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if s.usageDirty.Swap(false) {
		return s.persist()
	}
	return nil
}

// usageFlushLoop periodically persists usage-counter updates.
func (s *Store) usageFlushLoop() {
	ticker := time.NewTicker(usageFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.usageDirty.Swap(false) {
				if err := s.persist(); err != nil {
					s.logger.Warn("usage counter flush failed", observability.Error(err))
				}
			}
		case <-s.stopCh:
			return
		}
	}
}

// load reads the backing file into the registry. A missing file yields
// an empty registry; a corrupt file is renamed aside and logged.
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read key registry %s: %w", s.path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		quarantine := fmt.Sprintf("%s.corrupt.%d", s.path, time.Now().Unix())
		if renameErr := os.Rename(s.path, quarantine); renameErr != nil {
			s.logger.Error("failed to quarantine corrupt key registry",
				observability.Error(renameErr))
		}
		s.logger.Error("key registry is corrupt, starting with an empty registry",
			observability.String("path", s.path),
			observability.String("quarantined_as", quarantine),
			observability.Error(err))
		return nil
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	for _, rec := range records {
		key := keyFromRecord(rec)
		s.keys[key.Token] = key
		s.order = append(s.order, key)
	}

	s.logger.Info("key registry loaded",
		observability.String("path", s.path),
		observability.Int("keys", len(s.order)))
	return nil
}

// bootstrap mints the initial admin key and emits its token through the
// operational log. This is the only path by which an operator obtains
// initial access; the raw token is never logged again.
func (s *Store) bootstrap() error {
	key, err := s.Generate(DefaultAdminName, TierAdmin)
	if err != nil {
		return err
	}

	banner := strings.Repeat("=", 68)
	s.logger.Warn(banner)
	s.logger.Warn("INITIAL ADMIN API KEY - shown once, capture it now")
	s.logger.Warn(banner)
	s.logger.Warn(key.Token)
	s.logger.Warn("this token is not recoverable and will never be shown again")
	s.logger.Warn(banner)

	return nil
}

// persist writes the full registry to the backing file via a temp file
// and an atomic rename. The file lock orders writers so a later
// mutation can never be overwritten by the snapshot of an earlier one;
// the registry lock is only held long enough to snapshot.
func (s *Store) persist() error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	s.mu.RLock()
	records := make([]Record, 0, len(s.order))
	for _, key := range s.order {
		records = append(records, key.Snapshot())
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode key registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create registry directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".apikeys-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp registry file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp registry file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp registry file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace key registry: %w", err)
	}

	return nil
}
