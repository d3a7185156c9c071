package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"tradinglions/internal/logger"
)

// Profile overrides per-asset trading parameters. Zero fields fall back to
// the global config.
type Profile struct {
	Enabled       *bool   `yaml:"enabled" json:"enabled,omitempty"`
	Stake         float64 `yaml:"stake" json:"stake,omitempty"`
	MinScore      float64 `yaml:"min_score" json:"min_score,omitempty"`
	MinPayout     float64 `yaml:"min_payout" json:"min_payout,omitempty"`
	ExpiryMinutes int     `yaml:"expiry_minutes" json:"expiry_minutes,omitempty"`
}

// Active reports whether the asset may be traded under this profile.
func (p Profile) Active() bool { return p.Enabled == nil || *p.Enabled }

type profileFile struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// ProfileSnapshot is an immutable view of the loaded profiles.
type ProfileSnapshot struct {
	Version  int64
	LoadedAt time.Time
	Profiles map[string]Profile
}

// ProfileListener fires after a successful reload.
type ProfileListener func(ProfileSnapshot)

// ProfileRegistry loads per-asset profiles from a YAML file and hot-reloads
// them when the file changes.
type ProfileRegistry struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  ProfileSnapshot
	listeners []ProfileListener
}

// profileSchema validates each asset entry after YAML decoding.
const profileSchema = `{
	"type": "object",
	"properties": {
		"enabled": {"type": "boolean"},
		"stake": {"type": "number", "minimum": 0},
		"min_score": {"type": "number", "minimum": 0, "maximum": 1},
		"min_payout": {"type": "number", "minimum": 0, "maximum": 1},
		"expiry_minutes": {"type": "integer", "minimum": 0}
	},
	"additionalProperties": false
}`

var compiledProfileSchema = jsonschema.MustCompileString("profile.json", profileSchema)

// NewProfileRegistry reads the profile file and watches it for updates. A
// missing file is not an error: the registry starts empty, no watch is
// installed, and the file is read on the next restart.
func NewProfileRegistry(path string) (*ProfileRegistry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("profile registry requires a path")
	}
	r := &ProfileRegistry{path: path}
	if _, err := os.Stat(path); err == nil {
		if err := r.reload(); err != nil {
			return nil, err
		}
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err == nil {
			v.OnConfigChange(func(fsnotify.Event) {
				if err := r.reload(); err != nil {
					logger.Errorf("profile reload failed: %v", err)
					return
				}
				r.notify()
			})
			v.WatchConfig()
			r.v = v
		}
	} else {
		logger.Warnf("profile file %s not found, using global defaults for all assets", path)
	}
	return r, nil
}

// Profile returns the overrides for an asset, false if none are defined.
func (r *ProfileRegistry) Profile(asset string) (Profile, bool) {
	if r == nil {
		return Profile{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.snapshot.Profiles[strings.ToUpper(strings.TrimSpace(asset))]
	return p, ok
}

// Snapshot returns a copy of the current profile set.
func (r *ProfileRegistry) Snapshot() ProfileSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneProfiles(r.snapshot)
}

// OnChange registers a listener called after each successful reload.
func (r *ProfileRegistry) OnChange(fn ProfileListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *ProfileRegistry) reload() error {
	cfg, err := readProfileFile(r.path)
	if err != nil {
		return err
	}
	profiles := make(map[string]Profile, len(cfg.Profiles))
	for asset, p := range cfg.Profiles {
		asset = strings.ToUpper(strings.TrimSpace(asset))
		if asset == "" {
			continue
		}
		if err := validateProfile(asset, p); err != nil {
			return err
		}
		profiles[asset] = p
	}
	r.mu.Lock()
	r.snapshot = ProfileSnapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Profiles: profiles,
	}
	r.mu.Unlock()
	logger.Infof("loaded %d asset profiles from %s", len(profiles), filepath.Base(r.path))
	return nil
}

func (r *ProfileRegistry) notify() {
	r.mu.RLock()
	snap := cloneProfiles(r.snapshot)
	listeners := append([]ProfileListener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		go func(cb ProfileListener) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Errorf("profile listener panic: %v", rec)
				}
			}()
			cb(snap)
		}(fn)
	}
}

func validateProfile(asset string, p Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if err := compiledProfileSchema.Validate(doc); err != nil {
		return fmt.Errorf("profile %s invalid: %w", asset, err)
	}
	return nil
}

func readProfileFile(path string) (profileFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return profileFile{}, fmt.Errorf("read profile file failed: %w", err)
	}
	var cfg profileFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return profileFile{}, fmt.Errorf("parse profile file failed: %w", err)
	}
	return cfg, nil
}

func cloneProfiles(src ProfileSnapshot) ProfileSnapshot {
	dst := ProfileSnapshot{
		Version:  src.Version,
		LoadedAt: src.LoadedAt,
		Profiles: make(map[string]Profile, len(src.Profiles)),
	}
	for k, v := range src.Profiles {
		dst.Profiles[k] = v
	}
	return dst
}
