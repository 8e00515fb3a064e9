package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
	"github.com/kirillkom/eval-tree-viewer/internal/core/ports"
	"github.com/kirillkom/eval-tree-viewer/internal/core/viewer"
)

type CredentialUseCase struct {
	credentials ports.CredentialStore
	reloader    ports.DocumentReloader
	store       *viewer.Store
}

func NewCredentialUseCase(credentials ports.CredentialStore, reloader ports.DocumentReloader, store *viewer.Store) *CredentialUseCase {
	return &CredentialUseCase{credentials: credentials, reloader: reloader, store: store}
}

// Set persists the credential. When nothing has been loaded yet it also starts
// a reload with it and reports whether it did.
func (uc *CredentialUseCase) Set(ctx context.Context, credential string) (bool, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return false, domain.WrapError(domain.ErrInvalidInput, "set credential", errors.New("credential is empty"))
	}
	if err := uc.credentials.Set(ctx, credential); err != nil {
		return false, fmt.Errorf("persist credential: %w", err)
	}
	if uc.store.Len() > 0 {
		return false, nil
	}
	if _, err := uc.reloader.Reload(ctx, credential); err != nil {
		return true, err
	}
	return true, nil
}

func (uc *CredentialUseCase) Clear(ctx context.Context) error {
	if err := uc.credentials.Clear(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
