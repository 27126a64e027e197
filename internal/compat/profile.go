package compat

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SchemaVersion gates profile decoding. Profiles written by a different
// schema are rejected and re-recorded rather than migrated.
const SchemaVersion = 1

var (
	// ErrProfileNotFound marks the explicit absence of a stored profile.
	ErrProfileNotFound = errors.New("behavior profile not found")
	// ErrSchemaMismatch marks a stored profile from another schema version.
	ErrSchemaMismatch = errors.New("behavior profile schema mismatch")
	// ErrNoFixtures means recording is structurally impossible.
	ErrNoFixtures = errors.New("fixture catalogue is empty")
)

// ParsingBehavior captures how one fixture parsed on one platform.
type ParsingBehavior struct {
	ConstructID  string   `json:"construct_id"`
	NodeType     string   `json:"node_type"`
	ElementCount int      `json:"element_count"`
	Attributes   []string `json:"attributes"`
	HasError     bool     `json:"has_error"`
	Extra        []string `json:"extra"`
}

// Profile is one platform's recorded parsing behavior plus the adaptation
// rules enabled for it. Behaviors is keyed by fixture id.
type Profile struct {
	SchemaVersion   int                        `json:"schema_version"`
	PlatformKey     string                     `json:"platform_key"`
	Behaviors       map[string]ParsingBehavior `json:"behaviors"`
	AdaptationRules []string                   `json:"adaptation_rules"`
}

// NewProfile returns an empty profile for a platform key.
func NewProfile(key string) *Profile {
	return &Profile{
		SchemaVersion:   SchemaVersion,
		PlatformKey:     key,
		Behaviors:       map[string]ParsingBehavior{},
		AdaptationRules: []string{},
	}
}

// Encode renders the profile as indented JSON.
func (p *Profile) Encode() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// DecodeProfile parses and validates profile JSON. Decoding is deliberate:
// unmarshal, gate on the schema version, then fill defaults so callers
// never see nil maps or slices from older writers.
func DecodeProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if p.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, p.SchemaVersion, SchemaVersion)
	}
	if p.Behaviors == nil {
		p.Behaviors = map[string]ParsingBehavior{}
	}
	if p.AdaptationRules == nil {
		p.AdaptationRules = []string{}
	}
	for id, b := range p.Behaviors {
		if b.Attributes == nil {
			b.Attributes = []string{}
		}
		if b.Extra == nil {
			b.Extra = []string{}
		}
		p.Behaviors[id] = b
	}
	return &p, nil
}

// LoadProfile reads a profile from disk. A missing file is
// ErrProfileNotFound; schema and parse failures are their own errors.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, path)
		}
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p, err := DecodeProfile(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// SaveProfile writes the profile for a platform under base. The write is
// atomic: a temp file in the target directory, then a rename, so a crash
// never leaves a partial profile behind.
func SaveProfile(p *Profile, base string, info PlatformInfo) error {
	data, err := p.Encode()
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	path := ProfilePath(base, info)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "profile-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp profile: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp profile: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename profile: %w", err)
	}
	return nil
}
