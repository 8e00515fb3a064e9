package localfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

const credentialKey = "credential"

// CredentialStore persists the bearer credential as a single file.
type CredentialStore struct {
	storage *Storage
}

func NewCredentialStore(storage *Storage) *CredentialStore {
	return &CredentialStore{storage: storage}
}

// Get returns "" when no credential was stored.
func (c *CredentialStore) Get(ctx context.Context) (string, error) {
	rc, err := c.storage.Open(ctx, credentialKey)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func (c *CredentialStore) Set(ctx context.Context, credential string) error {
	return c.storage.Save(ctx, credentialKey, bytes.NewReader([]byte(credential)))
}

func (c *CredentialStore) Clear(ctx context.Context) error {
	return c.storage.Remove(ctx, credentialKey)
}
