package bridge

import (
	"fmt"
	"os"
	"strings"

	"github.com/mwhitfield/leapgate/internal/infrastructure/config"
)

// Secret holds the trust material needed to authenticate with one bridge:
// the bridge's CA certificate plus the client certificate and key issued
// during pairing.
type Secret struct {
	BridgeID    string
	CA          []byte
	Certificate []byte
	PrivateKey  []byte
}

// SecretStore maps bridge IDs to pairing credentials. Lookups are
// case-insensitive; IDs are normalised to lowercase on load.
//
// The store is immutable after construction and safe for concurrent use.
type SecretStore struct {
	secrets map[string]Secret
}

// NewSecretStore loads the trust material for every configured bridge.
//
// Each credential field accepts either an inline PEM block or a path to
// a PEM file. Loading stops at the first bridge whose material cannot be
// read; a store is only returned when every entry loads cleanly.
func NewSecretStore(entries []config.BridgeConfig) (*SecretStore, error) {
	store := &SecretStore{secrets: make(map[string]Secret, len(entries))}

	for _, entry := range entries {
		id := strings.ToLower(strings.TrimSpace(entry.ID))

		ca, err := loadPEM(entry.CA)
		if err != nil {
			return nil, fmt.Errorf("%w: bridge %s ca: %v", ErrBadSecret, id, err)
		}
		cert, err := loadPEM(entry.Cert)
		if err != nil {
			return nil, fmt.Errorf("%w: bridge %s cert: %v", ErrBadSecret, id, err)
		}
		key, err := loadPEM(entry.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: bridge %s key: %v", ErrBadSecret, id, err)
		}

		store.secrets[id] = Secret{
			BridgeID:    id,
			CA:          ca,
			Certificate: cert,
			PrivateKey:  key,
		}
	}

	return store, nil
}

// loadPEM returns the PEM bytes for a credential value, reading from disk
// when the value is a file path rather than an inline block.
func loadPEM(value string) ([]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("empty credential")
	}
	if strings.HasPrefix(trimmed, "-----BEGIN") {
		return []byte(trimmed), nil
	}
	data, err := os.ReadFile(trimmed)
	if err != nil {
		return nil, fmt.Errorf("reading credential file: %w", err)
	}
	return data, nil
}

// Lookup returns the credentials for a bridge ID, if any exist.
func (s *SecretStore) Lookup(bridgeID string) (Secret, bool) {
	secret, ok := s.secrets[strings.ToLower(bridgeID)]
	return secret, ok
}

// Len returns the number of bridges the store has credentials for.
func (s *SecretStore) Len() int {
	return len(s.secrets)
}

// Empty reports whether the store holds no credentials at all.
func (s *SecretStore) Empty() bool {
	return len(s.secrets) == 0
}

// IDs returns the bridge IDs the store has credentials for.
func (s *SecretStore) IDs() []string {
	ids := make([]string, 0, len(s.secrets))
	for id := range s.secrets {
		ids = append(ids, id)
	}
	return ids
}
