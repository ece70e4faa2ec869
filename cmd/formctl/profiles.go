package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// ProfilesConfig holds all named profiles and tracks which one is active.
type ProfilesConfig struct {
	Active   string             `toml:"active"`
	Profiles map[string]Profile `toml:"profiles"`
}

// Profile is a named formbuilder deployment.
type Profile struct {
	URL     string `toml:"url"`
	NATSURL string `toml:"nats_url,omitempty"`
}

func profilesPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "formctl")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "profiles.toml"), nil
}

func loadProfiles() (ProfilesConfig, error) {
	path, err := profilesPath()
	if err != nil {
		return ProfilesConfig{}, err
	}
	var cfg ProfilesConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return ProfilesConfig{Profiles: map[string]Profile{}}, nil
		}
		return ProfilesConfig{}, err
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	return cfg, nil
}

func saveProfiles(cfg ProfilesConfig) error {
	path, err := profilesPath()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

func lookupProfile(name string) (Profile, error) {
	cfg, err := loadProfiles()
	if err != nil {
		return Profile{}, err
	}
	p, ok := cfg.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile %q not found", name)
	}
	return p, nil
}

// The active profile is read once per process.
var (
	activeOnce   sync.Once
	activeCached Profile
)

func activeProfile() Profile {
	activeOnce.Do(func() {
		cfg, err := loadProfiles()
		if err != nil || cfg.Active == "" {
			return
		}
		activeCached = cfg.Profiles[cfg.Active]
	})
	return activeCached
}

// natsURL resolves the event bus URL: explicit flag, then environment, then
// the selected or active profile.
func natsURL(flag string) string {
	if flag != "" {
		return flag
	}
	if s := os.Getenv("FORMBUILDER_NATS_URL"); s != "" {
		return s
	}
	if profile != "" {
		if p, err := lookupProfile(profile); err == nil {
			return p.NATSURL
		}
	}
	return activeProfile().NATSURL
}
