// Package config parses Cable connection profiles: small YAML
// files bundling an endpoint URL with the identity to present.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tzrikka/cable/pkg/packet"
)

// Profile is a stored Cable connection: where to
// connect, and who to connect as.
type Profile struct {
	URL      string `yaml:"url"`
	UserID   string `yaml:"user_id,omitempty"`
	ClientID string `yaml:"client_id,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// Identity returns the profile's identity fields.
func (p *Profile) Identity() packet.Identity {
	return packet.Identity{UserID: p.UserID, ClientID: p.ClientID, Password: p.Password}
}

// LoadProfile reads and validates a YAML connection profile.
func LoadProfile(path string) (*Profile, error) {
	b, err := os.ReadFile(path) //gosec:disable G304 // User-specified config file.
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	p := &Profile{}
	if err := yaml.Unmarshal(b, p); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Profile) validate() error {
	if p.URL == "" {
		return errors.New("profile is missing a URL")
	}

	u, err := url.Parse(p.URL)
	if err != nil {
		return fmt.Errorf("failed to parse profile URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss", "http", "https":
		return nil
	default:
		return fmt.Errorf("unexpected profile URL scheme: %q", u.Scheme)
	}
}
