// Package storage persists cached lyrics, play history and preferences.
package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tessro/cadence/internal/core"
	"go.etcd.io/bbolt"
)

var (
	lyricsBucket       = []byte("lyrics")
	historyBucket      = []byte("history")
	historyIndexBucket = []byte("history_index")
	prefsBucket        = []byte("prefs")

	volumeKey = []byte("volume")
)

type lyricsRecord struct {
	FetchedAt time.Time        `json:"fetched_at"`
	Lines     []core.LyricLine `json:"lines"`
}

// BoltStore is a bbolt-backed lyric cache and play history.
type BoltStore struct {
	db  *bbolt.DB
	ttl time.Duration
	now func() time.Time
}

// BoltOption configures a BoltStore.
type BoltOption func(*BoltStore)

// WithTTL sets how long cached lyrics stay valid. Zero keeps them forever.
func WithTTL(ttl time.Duration) BoltOption {
	return func(s *BoltStore) {
		s.ttl = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) BoltOption {
	return func(s *BoltStore) {
		s.now = now
	}
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string, opts ...BoltOption) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("could not create database directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open bbolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{lyricsBucket, historyBucket, historyIndexBucket, prefsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not create buckets: %w", err)
	}

	s := &BoltStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetLyrics returns cached lines for key. Expired entries count as missing.
func (s *BoltStore) GetLyrics(ctx context.Context, key string) ([]core.LyricLine, bool, error) {
	var (
		rec   lyricsRecord
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(lyricsBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("error deserializing lyrics: %w", err)
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return nil, false, err
	}
	if s.ttl > 0 && s.now().Sub(rec.FetchedAt) > s.ttl {
		return nil, false, nil
	}
	return rec.Lines, true, nil
}

// PutLyrics stores lines under key.
func (s *BoltStore) PutLyrics(ctx context.Context, key string, lines []core.LyricLine) error {
	value, err := json.Marshal(lyricsRecord{FetchedAt: s.now(), Lines: lines})
	if err != nil {
		return fmt.Errorf("error serializing lyrics: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(lyricsBucket).Put([]byte(key), value)
	})
}

// PurgeLyrics removes expired cache entries and returns how many it removed.
func (s *BoltStore) PurgeLyrics() (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		c := tx.Bucket(lyricsBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec lyricsRecord
			if err := json.Unmarshal(v, &rec); err == nil && s.now().Sub(rec.FetchedAt) <= s.ttl {
				continue
			}
			if err := c.Delete(); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// historyKey orders entries by play time; the track ID keeps keys unique.
func historyKey(t time.Time, trackID string) []byte {
	key := make([]byte, 8, 8+len(trackID))
	binary.BigEndian.PutUint64(key, uint64(t.UnixNano()))
	return append(key, trackID...)
}

// AddToHistory records that track started playing. An older entry for the
// same track is replaced; its resume position carries over.
func (s *BoltStore) AddToHistory(track core.Track) error {
	entry := core.HistoryEntry{Track: track, PlayedAt: s.now()}
	return s.putHistory(entry)
}

// UpdateResume stores the position to resume track at. Unknown tracks are
// ignored.
func (s *BoltStore) UpdateResume(trackID string, position float64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		old := tx.Bucket(historyIndexBucket).Get([]byte(trackID))
		if old == nil {
			return nil
		}
		hist := tx.Bucket(historyBucket)
		v := hist.Get(old)
		if v == nil {
			return nil
		}

		var entry core.HistoryEntry
		if err := json.Unmarshal(v, &entry); err != nil {
			return fmt.Errorf("error deserializing history entry: %w", err)
		}
		entry.ResumeAt = position

		value, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("error serializing history entry: %w", err)
		}
		return hist.Put(old, value)
	})
}

func (s *BoltStore) putHistory(entry core.HistoryEntry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		hist := tx.Bucket(historyBucket)
		index := tx.Bucket(historyIndexBucket)
		id := []byte(entry.Track.ID)

		if old := index.Get(id); old != nil {
			if v := hist.Get(old); v != nil && entry.ResumeAt == 0 {
				var prev core.HistoryEntry
				if err := json.Unmarshal(v, &prev); err == nil {
					entry.ResumeAt = prev.ResumeAt
				}
			}
			if err := hist.Delete(old); err != nil {
				return err
			}
		}

		value, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("error serializing history entry: %w", err)
		}
		key := historyKey(entry.PlayedAt, entry.Track.ID)
		if err := hist.Put(key, value); err != nil {
			return err
		}
		return index.Put(id, key)
	})
}

// History returns up to limit entries, most recent first.
func (s *BoltStore) History(limit int) ([]core.HistoryEntry, error) {
	var entries []core.HistoryEntry

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(historyBucket).Cursor()
		for k, v := c.Last(); k != nil && (limit <= 0 || len(entries) < limit); k, v = c.Prev() {
			var entry core.HistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("error deserializing history entry: %w", err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Resume returns the stored resume position for a track.
func (s *BoltStore) Resume(trackID string) (float64, bool, error) {
	var (
		pos   float64
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket(historyIndexBucket).Get([]byte(trackID))
		if key == nil {
			return nil
		}
		v := tx.Bucket(historyBucket).Get(key)
		if v == nil {
			return nil
		}
		var entry core.HistoryEntry
		if err := json.Unmarshal(v, &entry); err != nil {
			return err
		}
		pos, found = entry.ResumeAt, true
		return nil
	})
	return pos, found, err
}

// SaveVolume remembers the last volume the user chose.
func (s *BoltStore) SaveVolume(percent int) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(prefsBucket).Put(volumeKey, []byte(strconv.Itoa(percent)))
	})
}

// Volume returns the saved volume, if any.
func (s *BoltStore) Volume() (int, bool, error) {
	var (
		percent int
		found   bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(prefsBucket).Get(volumeKey)
		if v == nil {
			return nil
		}
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return fmt.Errorf("error reading saved volume: %w", err)
		}
		percent, found = n, true
		return nil
	})
	return percent, found, err
}

// ClearVolume forgets the saved volume so the configured one applies again.
func (s *BoltStore) ClearVolume() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(prefsBucket).Delete(volumeKey)
	})
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
