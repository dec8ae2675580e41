package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	snapshotFile = "ledger.db"
	profileFile  = "profile.json"
)

// FileVault keeps each user's blobs in its own directory under the
// configured root: <root>/<userID>/ledger.db and <root>/<userID>/profile.json.
type FileVault struct {
	root string
}

func NewFileVault(root string) (*FileVault, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating vault root: %v", ErrUnavailable, err)
	}
	return &FileVault{root: root}, nil
}

func (v *FileVault) LoadSnapshot(ctx context.Context, userID string) ([]byte, error) {
	return v.load(ctx, userID, snapshotFile)
}

func (v *FileVault) SaveSnapshot(ctx context.Context, userID string, data []byte) error {
	return v.save(ctx, userID, snapshotFile, data)
}

func (v *FileVault) LoadProfile(ctx context.Context, userID string) ([]byte, error) {
	return v.load(ctx, userID, profileFile)
}

func (v *FileVault) SaveProfile(ctx context.Context, userID string, data []byte) error {
	return v.save(ctx, userID, profileFile, data)
}

func (v *FileVault) load(ctx context.Context, userID, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	path, err := v.blobPath(userID, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s for user %s", ErrNotFound, name, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrUnavailable, name, err)
	}
	return data, nil
}

// save writes to a temp file in the same directory and renames it over
// the target, so a failure mid-write never leaves a partial blob behind.
func (v *FileVault) save(ctx context.Context, userID, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	path, err := v.blobPath(userID, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: creating user directory: %v", ErrUnavailable, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), name+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing %s: %v", ErrUnavailable, name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrUnavailable, name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: replacing %s: %v", ErrUnavailable, name, err)
	}
	log.Debugf("saved %s for user %s (%d bytes)", name, userID, len(data))
	return nil
}

// blobPath maps a user id to its directory, rejecting ids that would
// escape the vault root.
func (v *FileVault) blobPath(userID, name string) (string, error) {
	if userID == "" || strings.ContainsAny(userID, `/\`) || strings.Contains(userID, "..") {
		return "", fmt.Errorf("%w: invalid user id %q", ErrUnavailable, userID)
	}
	return filepath.Join(v.root, userID, name), nil
}
