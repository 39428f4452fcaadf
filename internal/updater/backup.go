package updater

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	backupFilename     = "canister.backup"
	backupInfoFilename = "backup.json"
)

// BackupInfo describes the binary saved before the last update.
type BackupInfo struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	ExecPath  string    `json:"exec_path"`
}

// backupStore keeps one copy of the previous binary in dir.
type backupStore struct {
	mu     sync.RWMutex
	dir    string
	info   *BackupInfo
	logger *slog.Logger
}

// DefaultBackupDir returns ~/.cache/canister/backup.
func DefaultBackupDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "canister", "backup"), nil
}

func newBackupStore(dir string, logger *slog.Logger) (*backupStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	s := &backupStore{dir: dir, logger: logger}
	s.load()
	return s, nil
}

func (s *backupStore) load() {
	data, err := os.ReadFile(filepath.Join(s.dir, backupInfoFilename))
	if err != nil {
		return
	}

	var info BackupInfo
	if err := json.Unmarshal(data, &info); err != nil {
		s.logger.Warn("Failed to parse backup info", "error", err)
		return
	}

	if _, err := os.Stat(s.binaryPath()); err != nil {
		s.logger.Warn("Backup file missing", "path", s.binaryPath())
		return
	}

	s.mu.Lock()
	s.info = &info
	s.mu.Unlock()
	s.logger.Debug("Loaded backup info", "version", info.Version)
}

func (s *backupStore) binaryPath() string {
	return filepath.Join(s.dir, backupFilename)
}

// save copies execPath into the store and records ver as its version.
func (s *backupStore) save(execPath, ver string) error {
	if err := copyFile(execPath, s.binaryPath()); err != nil {
		return err
	}

	info := BackupInfo{
		Version:   ver,
		CreatedAt: time.Now(),
		ExecPath:  execPath,
	}
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal backup info: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, backupInfoFilename), data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup info: %w", err)
	}

	s.mu.Lock()
	s.info = &info
	s.mu.Unlock()

	s.logger.Info("Backup created", "version", ver, "path", s.binaryPath())
	return nil
}

// restore copies the saved binary back over the path it was taken from.
func (s *backupStore) restore() (*BackupInfo, error) {
	s.mu.RLock()
	info := s.info
	s.mu.RUnlock()

	if info == nil {
		return nil, newError(ErrCodeNoBackup, "no backup available", nil)
	}
	if err := copyFile(s.binaryPath(), info.ExecPath); err != nil {
		return nil, err
	}

	s.logger.Info("Backup restored", "version", info.Version, "path", info.ExecPath)
	return info, nil
}

func (s *backupStore) current() (BackupInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return BackupInfo{}, false
	}
	return *s.info, true
}

// copyFile writes from into a temporary file beside to and renames it into
// place, so a running binary can be replaced.
func copyFile(from, to string) error {
	src, err := os.Open(from)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", from, err)
	}
	defer src.Close()

	tmp := to + ".new"
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to copy %s: %w", from, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, to); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", to, err)
	}
	return nil
}
