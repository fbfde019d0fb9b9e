// Package storage persists daily payloads as JSON envelopes on disk.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
	"github.com/wonny/ashare-daily/backend/pkg/logger"
	"github.com/wonny/ashare-daily/backend/pkg/redis"
)

// ErrNotFound is returned when no payload exists for a type and date
var ErrNotFound = errors.New("payload not found")

// Store reads and writes <dir>/<type>_<date>.json files
// ⭐ SSOT: 페이로드 파일 경로/포맷은 여기서만 결정
type Store struct {
	dir    string
	cache  *redis.Cache
	logger *logger.Logger
	now    func() time.Time
}

// New creates the data directory if needed
func New(dir string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: log, now: time.Now}, nil
}

// WithCache puts a Redis read-through cache in front of Load
func (s *Store) WithCache(c *redis.Cache) *Store {
	s.cache = c
	return s
}

// Dir returns the data directory
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(t contracts.PayloadType, date string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", t, date))
}

func validDate(date string) error {
	if _, err := time.Parse(contracts.DateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}
	return nil
}

// Save wraps data in an envelope and writes it atomically. Returns the file path.
func (s *Store) Save(ctx context.Context, t contracts.PayloadType, date string, data interface{}) (string, error) {
	if err := validDate(date); err != nil {
		return "", err
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", t, err)
	}

	env := contracts.Envelope{
		Date:      date,
		Type:      t,
		Timestamp: s.now(),
		Data:      raw,
	}
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s envelope: %w", t, err)
	}

	path := s.path(t, date)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", path, err)
	}

	if s.cache.Enabled() {
		if err := s.cache.SetBytes(ctx, redis.PayloadKey(string(t), date), out, redis.TTLDaily); err != nil {
			s.logger.WithError(err).Warn("payload cache write failed")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"type": t,
		"date": date,
		"path": path,
	}).Debug("payload saved")

	return path, nil
}

// Load returns the envelope for type and date, or ErrNotFound
func (s *Store) Load(ctx context.Context, t contracts.PayloadType, date string) (*contracts.Envelope, error) {
	if err := validDate(date); err != nil {
		return nil, err
	}

	key := redis.PayloadKey(string(t), date)
	if s.cache.Enabled() {
		cached, found, err := s.cache.GetBytes(ctx, key)
		if err != nil {
			s.logger.WithError(err).Warn("payload cache read failed")
		}
		if found {
			var env contracts.Envelope
			if err := json.Unmarshal(cached, &env); err == nil {
				return &env, nil
			}
		}
	}

	b, err := os.ReadFile(s.path(t, date))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s %s: %w", t, date, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", t, date, err)
	}

	var env contracts.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", t, date, err)
	}

	if s.cache.Enabled() {
		if err := s.cache.SetBytes(ctx, key, b, redis.TTLDaily); err != nil {
			s.logger.WithError(err).Warn("payload cache write failed")
		}
	}

	return &env, nil
}

// Exists reports whether a payload file exists
func (s *Store) Exists(t contracts.PayloadType, date string) bool {
	if validDate(date) != nil {
		return false
	}
	_, err := os.Stat(s.path(t, date))
	return err == nil
}

// ListDates returns the dates with a stored payload of type t, ascending
func (s *Store) ListDates(t contracts.PayloadType) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, string(t)+"_*.json"))
	if err != nil {
		return nil, err
	}

	prefix := string(t) + "_"
	dates := make([]string, 0, len(matches))
	for _, m := range matches {
		date := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), prefix), ".json")
		if validDate(date) == nil {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// LoadRange returns envelopes with start <= date <= end, ascending
func (s *Store) LoadRange(ctx context.Context, t contracts.PayloadType, start, end string) ([]contracts.Envelope, error) {
	dates, err := s.ListDates(t)
	if err != nil {
		return nil, err
	}

	var out []contracts.Envelope
	for _, d := range dates {
		if d < start || d > end {
			continue
		}
		env, err := s.Load(ctx, t, d)
		if err != nil {
			return nil, err
		}
		out = append(out, *env)
	}
	return out, nil
}

// Delete removes a payload. Returns false if nothing was stored.
func (s *Store) Delete(ctx context.Context, t contracts.PayloadType, date string) (bool, error) {
	if err := validDate(date); err != nil {
		return false, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Delete(ctx, redis.PayloadKey(string(t), date)); err != nil {
			s.logger.WithError(err).Warn("payload cache delete failed")
		}
	}

	err := os.Remove(s.path(t, date))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete %s %s: %w", t, date, err)
	}
	return true, nil
}
