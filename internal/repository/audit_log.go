package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"nija-backend/internal/domain"
)

// AuditLog appends newline-delimited JSON events to a single file. The mutex
// keeps concurrent appends from interleaving half-written lines.
type AuditLog struct {
	path string
	mu   sync.Mutex
}

func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path}
}

func (l *AuditLog) Append(event *domain.AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(data, '\n'))
	return err
}

// compile-time check
var _ domain.AuditLogger = (*AuditLog)(nil)
