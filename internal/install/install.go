// Package install unpacks a downloaded FFmpeg bundle and swaps its bin
// directory into the install root without ever leaving a half-installed
// state behind.
package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/tanq16/ffgrab/internal/utils"
)

var (
	// ErrMalformedArchive means the archive's internal layout is not a
	// recognizable bundle (no top-level directory, or no bin inside it).
	ErrMalformedArchive = errors.New("malformed archive")

	// ErrInstallVerification means the executable was still missing after
	// an apparently successful install.
	ErrInstallVerification = errors.New("install verification failed")
)

// Install extracts archivePath and moves the bundle's bin directory into
// installRoot/bin using stage-then-swap: the new directory lands under a
// temporary sibling name, the old bin is renamed to a backup, the new
// one renamed into place, and the backup removed only after success. An
// interruption never leaves the install directory absent. The staging
// directory and the archive are removed best-effort regardless of
// outcome. exeRelPath (e.g. bin/ffmpeg) is re-verified at the end.
func Install(archivePath, installRoot, exeRelPath string) error {
	log := utils.GetLogger("install")
	tempDir, err := utils.TempDir(installRoot)
	if err != nil {
		return err
	}
	stagingDir := filepath.Join(tempDir, "stage-"+uuid.NewString()[:8])
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return fmt.Errorf("error creating staging directory: %v", err)
	}
	defer func() {
		// Scoped cleanup, best-effort even on failure.
		os.RemoveAll(stagingDir)
		os.Remove(archivePath)
	}()

	log.Debug().Str("archive", filepath.Base(archivePath)).Msg("Extracting bundle")
	if err := ExtractArchive(archivePath, stagingDir); err != nil {
		return err
	}

	// Mirrors nest the payload one level deep under a version-named
	// folder; take the first directory found rather than a fixed name.
	bundleDir, err := firstDirectory(stagingDir)
	if err != nil {
		return err
	}
	stagedBin := filepath.Join(bundleDir, "bin")
	if info, err := os.Stat(stagedBin); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: no bin directory under %s", ErrMalformedArchive, filepath.Base(bundleDir))
	}

	if err := swapBin(stagedBin, installRoot); err != nil {
		return err
	}

	exePath := filepath.Join(installRoot, exeRelPath)
	if info, err := os.Stat(exePath); err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s missing after install", ErrInstallVerification, exeRelPath)
	}
	log.Info().Str("root", installRoot).Msg("Bundle installed")
	return nil
}

// swapBin replaces installRoot/bin with stagedBin atomically enough that
// a crash leaves either the old or the new directory in place.
func swapBin(stagedBin, installRoot string) error {
	finalBin := filepath.Join(installRoot, "bin")
	backupBin := filepath.Join(installRoot, ".bin-backup-"+uuid.NewString()[:8])

	hasOld := false
	if _, err := os.Stat(finalBin); err == nil {
		hasOld = true
		if err := os.Rename(finalBin, backupBin); err != nil {
			return fmt.Errorf("error backing up previous install: %v", err)
		}
	}
	if err := os.Rename(stagedBin, finalBin); err != nil {
		if hasOld {
			os.Rename(backupBin, finalBin) // restore, best-effort
		}
		return fmt.Errorf("error moving new bin into place: %v", err)
	}
	if hasOld {
		os.RemoveAll(backupBin)
	}
	return nil
}

func firstDirectory(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("%w: no top-level directory in archive", ErrMalformedArchive)
}
