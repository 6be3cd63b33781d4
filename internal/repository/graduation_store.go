package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"nija-backend/internal/domain"
)

// FileGraduationStore keeps one JSON file per user under dir.
type FileGraduationStore struct {
	dir string
}

func NewFileGraduationStore(dir string) *FileGraduationStore {
	return &FileGraduationStore{dir: dir}
}

func (s *FileGraduationStore) Load(userID string) (*domain.GraduationProgress, error) {
	data, err := os.ReadFile(s.pathFor(userID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}

	var progress domain.GraduationProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("corrupt graduation file for user %s: %w", userID, err)
	}
	return &progress, nil
}

func (s *FileGraduationStore) Save(progress *domain.GraduationProgress) error {
	data, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.pathFor(progress.UserID), data)
}

func (s *FileGraduationStore) pathFor(userID string) string {
	// Flatten path separators out of ids so a user id can never escape dir.
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(userID)
	return filepath.Join(s.dir, "graduation_"+safe+".json")
}

// compile-time check
var _ domain.GraduationStore = (*FileGraduationStore)(nil)
