// Package updater replaces the installed canister binary with the latest
// GitHub release and keeps one backup for rollback.
package updater

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/creativeprojects/go-selfupdate"

	"github.com/smazurov/canister/internal/version"
)

// DefaultRepository is the GitHub slug releases are fetched from.
const DefaultRepository = "smazurov/canister"

// Options contains configuration for the updater.
type Options struct {
	Repository string // GitHub repo slug, DefaultRepository when empty
	Prerelease bool   // Whether to include prereleases
	BackupDir  string // DefaultBackupDir() when empty
}

// Release describes the latest release relative to the running version.
type Release struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	ReleaseNotes    string    `json:"release_notes"`
	ReleaseURL      string    `json:"release_url"`
	PublishedAt     time.Time `json:"published_at"`
	AssetSize       int       `json:"asset_size"`
	UpdateAvailable bool      `json:"update_available"`
}

// Updater checks for, applies and rolls back releases.
type Updater struct {
	repository selfupdate.Repository
	updater    *selfupdate.Updater
	backups    *backupStore
	logger     *slog.Logger
}

// New creates an updater. It does not touch the network.
func New(opts Options, logger *slog.Logger) (*Updater, error) {
	if opts.Repository == "" {
		opts.Repository = DefaultRepository
	}
	if opts.BackupDir == "" {
		dir, err := DefaultBackupDir()
		if err != nil {
			return nil, err
		}
		opts.BackupDir = dir
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}
	up, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Prerelease: opts.Prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}

	backups, err := newBackupStore(opts.BackupDir, logger)
	if err != nil {
		return nil, err
	}

	return &Updater{
		repository: selfupdate.ParseSlug(opts.Repository),
		updater:    up,
		backups:    backups,
		logger:     logger,
	}, nil
}

// Check queries GitHub for the latest release without downloading it.
func (u *Updater) Check(ctx context.Context) (*Release, error) {
	info, _, err := u.detect(ctx)
	return info, err
}

func (u *Updater) detect(ctx context.Context) (*Release, *selfupdate.Release, error) {
	current := version.Version

	latest, found, err := u.updater.DetectLatest(ctx, u.repository)
	if err != nil {
		return nil, nil, newError(ErrCodeCheckFailed, "failed to check for updates", err)
	}
	if !found {
		return nil, nil, newError(ErrCodeNotFound, "repository not found or has no releases", nil)
	}

	// dev builds are always outdated
	newer := current == "dev" || latest.GreaterThan(current)
	info := &Release{
		CurrentVersion:  current,
		LatestVersion:   latest.Version(),
		UpdateAvailable: newer,
	}
	if newer {
		info.ReleaseNotes = latest.ReleaseNotes
		info.ReleaseURL = latest.URL
		info.PublishedAt = latest.PublishedAt
		info.AssetSize = latest.AssetByteSize
	}
	return info, latest, nil
}

// Apply backs up the running binary and replaces it with the latest
// release. A failed replacement restores the backup. The new version
// runs after the service restarts.
func (u *Updater) Apply(ctx context.Context) (*Release, error) {
	info, latest, err := u.detect(ctx)
	if err != nil {
		return nil, err
	}
	if !info.UpdateAvailable {
		return info, newError(ErrCodeNoUpdate, "already running "+info.CurrentVersion, nil)
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return nil, newError(ErrCodeApplyFailed, "failed to get executable path", err)
	}
	if err := checkWritable(exe); err != nil {
		return nil, err
	}

	if err := u.backups.save(exe, info.CurrentVersion); err != nil {
		return nil, newError(ErrCodeBackupFailed, "failed to create backup", err)
	}

	u.logger.Info("Applying update", "from", info.CurrentVersion, "to", info.LatestVersion)
	if err := u.updater.UpdateTo(ctx, latest, exe); err != nil {
		if _, rerr := u.backups.restore(); rerr != nil {
			u.logger.Error("Automatic rollback failed", "error", rerr)
		} else {
			u.logger.Info("Automatic rollback completed")
		}
		return nil, newError(ErrCodeApplyFailed, "failed to apply update", err)
	}

	u.logger.Info("Update applied", "version", info.LatestVersion)
	return info, nil
}

// Rollback restores the binary saved by the last Apply.
func (u *Updater) Rollback() (BackupInfo, error) {
	if _, ok := u.backups.current(); !ok {
		return BackupInfo{}, newError(ErrCodeNoBackup, "no backup available for rollback", nil)
	}
	info, err := u.backups.restore()
	if err != nil {
		return BackupInfo{}, newError(ErrCodeRollbackFailed, "failed to restore backup", err)
	}
	return *info, nil
}

// Backup returns the saved binary's metadata, if any.
func (u *Updater) Backup() (BackupInfo, bool) {
	return u.backups.current()
}

// checkWritable checks that the directory holding exe is writable.
func checkWritable(exe string) error {
	exe, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return newError(ErrCodeNotWritable, "failed to resolve executable", err)
	}
	tmp := filepath.Join(filepath.Dir(exe), ".canister.update.test")
	f, err := os.Create(tmp)
	if err != nil {
		return newError(ErrCodeNotWritable, "no write permission to "+filepath.Dir(exe), err)
	}
	f.Close()
	os.Remove(tmp)
	return nil
}
