// Package trades journals trade attempts in a write-ahead log.
package trades

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

const (
	DefaultDir     = "./wal/trades"
	segmentLimit   = 1000
	maxSegments    = 100
	dirPermissions = 0o755

	tradeKeyPrefix = "trade_"
)

// WALStore persists trade records in a WAL and remembers the highest nonce ever journaled.
type WALStore struct {
	wal       *gowal.Wal
	mu        sync.RWMutex
	lastNonce uint64
}

// NewWALStore opens (or creates) the trade journal in dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, errors.Wrapf(err, "failed to ensure WAL directory %s", dir)
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "trade_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init trade WAL")
	}

	store := &WALStore{wal: wal}
	for msg := range wal.Iterator() {
		if !strings.HasPrefix(msg.Key, tradeKeyPrefix) {
			continue
		}
		var record domain.TradeRecord
		if err := json.Unmarshal(msg.Value, &record); err != nil {
			continue
		}
		if record.Nonce > store.lastNonce {
			store.lastNonce = record.Nonce
		}
	}

	return store, nil
}

// Save appends the current state of a trade record.
func (s *WALStore) Save(record domain.TradeRecord) error {
	if s == nil || s.wal == nil {
		return errors.New("trade store is not initialized")
	}
	if record.ID == "" {
		return fmt.Errorf("trade record id is required")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal trade record")
	}

	key := fmt.Sprintf("%s%s", tradeKeyPrefix, record.ID)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(nextIndex, key, payload); err != nil {
		return errors.Wrap(err, "write trade record")
	}
	if record.Nonce > s.lastNonce {
		s.lastNonce = record.Nonce
	}

	return nil
}

// RecordsAfter returns all trade records written after the provided WAL index.
func (s *WALStore) RecordsAfter(index uint64) ([]domain.TradeRecordEntry, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("trade store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	entries := make([]domain.TradeRecordEntry, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(key, tradeKeyPrefix) {
			continue
		}

		var record domain.TradeRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, errors.Wrap(err, "decode trade record")
		}
		entries = append(entries, domain.TradeRecordEntry{Index: idx, Record: record})
	}

	return entries, nil
}

// LastNonce returns the highest nonce found in the journal, 0 if none.
func (s *WALStore) LastNonce() uint64 {
	if s == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastNonce
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("trade store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
