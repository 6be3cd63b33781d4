package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"nija-backend/internal/domain"
)

// FileApprovalStore persists the manual-approval queue as a single JSON file.
type FileApprovalStore struct {
	path string
}

func NewFileApprovalStore(path string) *FileApprovalStore {
	return &FileApprovalStore{path: path}
}

func (s *FileApprovalStore) Load() (*domain.ApprovalState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &domain.ApprovalState{PendingOrders: []domain.PendingOrder{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var state domain.ApprovalState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("corrupt approval file %s: %w", s.path, err)
	}
	if state.PendingOrders == nil {
		state.PendingOrders = []domain.PendingOrder{}
	}
	return &state, nil
}

func (s *FileApprovalStore) Save(state *domain.ApprovalState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data)
}

// compile-time check
var _ domain.ApprovalStore = (*FileApprovalStore)(nil)
