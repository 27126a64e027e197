package compat

import (
	"errors"
	"fmt"
	"log/slog"
)

// Manager resolves the behavior profile and adapter for the running
// platform: cache first, then disk, then a fresh recording. First run on a
// new platform self-provisions its profile.
type Manager struct {
	base  string
	cache *Cache
	rec   *Recorder
}

// NewManager returns a manager storing profiles under base. cache may be
// nil to resolve from disk every time.
func NewManager(base string, cache *Cache) *Manager {
	return &Manager{base: base, cache: cache, rec: NewRecorder()}
}

// Profile returns this platform's behavior profile, recording and saving a
// new one when neither the cache nor disk has a usable copy. A broken
// profile on disk is logged and re-recorded rather than wedging the
// caller; a failed save after a successful recording is logged and the
// in-memory profile still serves this process.
func (m *Manager) Profile() (*Profile, PlatformInfo, error) {
	info := Detect()

	if m.cache != nil {
		if p, ok := m.cache.Get(info.Key); ok {
			return p, info, nil
		}
	}

	p, err := LoadProfile(ProfilePath(m.base, info))
	switch {
	case err == nil:
		slog.Debug("compat.profile_loaded", "platform", info.Key)
	case errors.Is(err, ErrProfileNotFound):
		p = nil
	default:
		slog.Warn("compat.profile_invalid", "platform", info.Key, "err", err)
		p = nil
	}

	if p == nil {
		p, err = m.rec.RecordAll()
		if err != nil {
			return nil, info, fmt.Errorf("record behavior profile: %w", err)
		}
		if err := SaveProfile(p, m.base, info); err != nil {
			slog.Warn("compat.profile_save_failed", "platform", info.Key, "err", err)
		} else {
			slog.Info("compat.profile_recorded", "platform", info.Key, "path", ProfilePath(m.base, info))
		}
	}

	if m.cache != nil {
		m.cache.Put(info.Key, p)
	}
	return p, info, nil
}

// AdapterFor returns the adapter configured from this platform's resolved
// profile.
func (m *Manager) AdapterFor() (*Adapter, error) {
	p, _, err := m.Profile()
	if err != nil {
		return nil, err
	}
	return NewAdapterForProfile(p), nil
}

// CacheStats exposes the profile cache counters; zero stats when the
// manager runs uncached.
func (m *Manager) CacheStats() CacheStats {
	if m.cache == nil {
		return CacheStats{}
	}
	return m.cache.Stats()
}
