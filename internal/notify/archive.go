// Recordwatch - Trackmania Club Campaign World Record Tracker
// Copyright 2026 tmwatch
// SPDX-License-Identifier: MIT
// https://github.com/tmwatch/recordwatch

package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmwatch/recordwatch/internal/models"
)

// ErrReplayExists is returned when the archive already holds a replay file
// at the target path. Existing files are never overwritten.
var ErrReplayExists = errors.New("notify: replay file already exists")

// ReplayDownloader streams a record's replay storage object.
// Implemented by nadeo.Client.
type ReplayDownloader interface {
	DownloadReplay(ctx context.Context, recordUID string, w io.Writer) error
}

// Archive writes replay binaries under
// root/<campaign_uid>/<track_uid>/<track>_<score>_<player>_<uid>.Replay.Gbx.
type Archive struct {
	root      string
	downloads ReplayDownloader
}

// NewArchive creates a replay Archive rooted at root.
func NewArchive(root string, downloads ReplayDownloader) *Archive {
	return &Archive{root: root, downloads: downloads}
}

// Store downloads the record's replay into the archive. The target file is
// created exclusively: an existing file returns ErrReplayExists untouched.
// A failed download removes the partial file.
func (a *Archive) Store(ctx context.Context, rec *models.Record, track *models.Track) error {
	dir := filepath.Join(a.root, sanitizeName(rec.CampaignUID), sanitizeName(rec.TrackUID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	name := fmt.Sprintf("%s_%d_%s_%s.Replay.Gbx",
		sanitizeName(TrackDisplayName(track.Name)), rec.Score,
		sanitizeName(rec.User.Name), sanitizeName(rec.UID))
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrReplayExists, path)
		}
		return fmt.Errorf("create replay file: %w", err)
	}

	if err := a.downloads.DownloadReplay(ctx, rec.UID, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("download replay %s: %w", rec.UID, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close replay file: %w", err)
	}
	return nil
}

// sanitizeName makes a string safe as a single path component.
func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.' || r == ' ':
			return r
		default:
			return '_'
		}
	}, s)
}
