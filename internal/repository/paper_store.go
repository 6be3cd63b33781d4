package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"nija-backend/internal/domain"
)

// FilePaperStore persists the whole simulated account as one JSON file,
// rewritten atomically on every mutation.
type FilePaperStore struct {
	path string
}

func NewFilePaperStore(path string) *FilePaperStore {
	return &FilePaperStore{path: path}
}

func (s *FilePaperStore) Load() (*domain.PaperAccount, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	var account domain.PaperAccount
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("corrupt paper account file %s: %w", s.path, err)
	}
	return &account, nil
}

func (s *FilePaperStore) Save(account *domain.PaperAccount) error {
	data, err := json.MarshalIndent(account, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data)
}

// compile-time check
var _ domain.PaperStore = (*FilePaperStore)(nil)
