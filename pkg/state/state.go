package state

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	serrors "github.com/sipa-dev/sipa/internal/errors"
)

// Tier selects the lifetime of a value.
type Tier uint8

const (
	Ephemeral Tier = iota
	Session
	Persistent
)

// String returns the string representation of the Tier.
func (t Tier) String() string {
	switch t {
	case Ephemeral:
		return "ephemeral"
	case Session:
		return "session"
	case Persistent:
		return "persistent"
	default:
		return "unknown"
	}
}

// ParseTier parses the names returned by Tier.String.
func ParseTier(s string) (Tier, error) {
	for _, t := range []Tier{Ephemeral, Session, Persistent} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, serrors.New("S301").WithDetailf("tier %q", s)
}

// Store holds the three tiers.
type Store struct {
	logger  *slog.Logger
	backend Backend

	mu        sync.RWMutex
	ephemeral map[string][]byte
	session   map[string][]byte
}

// New creates a store whose persistent tier is backend. A nil backend uses
// a MemoryBackend; a nil logger uses slog.Default.
func New(backend Backend, logger *slog.Logger) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger:    logger,
		backend:   backend,
		ephemeral: make(map[string][]byte),
		session:   make(map[string][]byte),
	}
}

// Backend returns the persistent backend.
func (s *Store) Backend() Backend { return s.backend }

func (s *Store) table(t Tier) (map[string][]byte, error) {
	switch t {
	case Ephemeral:
		return s.ephemeral, nil
	case Session:
		return s.session, nil
	}
	return nil, serrors.New("S301").WithDetailf("tier %d", t)
}

func backendErr(op, key string, err error) error {
	return serrors.New("S303").WithDetailf("%s %q", op, key).Wrap(err)
}

// Set stores v under key.
func (s *Store) Set(ctx context.Context, t Tier, key string, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return serrors.New("S302").WithDetailf("key %q", key).Wrap(err)
	}
	if t == Persistent {
		if err := s.backend.Put(ctx, key, data); err != nil {
			return backendErr("put", key, err)
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.table(t)
	if err != nil {
		return err
	}
	m[key] = data
	return nil
}

// Get decodes the value under key into dst and reports whether it existed.
func (s *Store) Get(ctx context.Context, t Tier, key string, dst any) (bool, error) {
	var (
		data []byte
		ok   bool
	)
	if t == Persistent {
		var err error
		data, ok, err = s.backend.Get(ctx, key)
		if err != nil {
			return false, backendErr("get", key, err)
		}
	} else {
		s.mu.RLock()
		m, err := s.table(t)
		if err != nil {
			s.mu.RUnlock()
			return false, err
		}
		data, ok = m[key]
		s.mu.RUnlock()
	}
	if !ok {
		return false, nil
	}
	if err := msgpack.Unmarshal(data, dst); err != nil {
		return true, serrors.New("S302").WithDetailf("key %q", key).Wrap(err)
	}
	return true, nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, t Tier, key string) error {
	if t == Persistent {
		if err := s.backend.Delete(ctx, key); err != nil {
			return backendErr("delete", key, err)
		}
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.table(t)
	if err != nil {
		return err
	}
	delete(m, key)
	return nil
}

// Clear deletes every key of the tier.
func (s *Store) Clear(ctx context.Context, t Tier) error {
	if t == Persistent {
		keys, err := s.backend.Keys(ctx)
		if err != nil {
			return backendErr("list", "", err)
		}
		for _, k := range keys {
			if err := s.backend.Delete(ctx, k); err != nil {
				return backendErr("delete", k, err)
			}
		}
		s.logger.Debug("store cleared", "tier", t.String(), "keys", len(keys))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.table(t)
	if err != nil {
		return err
	}
	n := len(m)
	for k := range m {
		delete(m, k)
	}
	s.logger.Debug("store cleared", "tier", t.String(), "keys", n)
	return nil
}

// Keys returns the keys of the tier in sorted order.
func (s *Store) Keys(ctx context.Context, t Tier) ([]string, error) {
	if t == Persistent {
		keys, err := s.backend.Keys(ctx)
		if err != nil {
			return nil, backendErr("list", "", err)
		}
		sort.Strings(keys)
		return keys, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, err := s.table(t)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the persistent backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
