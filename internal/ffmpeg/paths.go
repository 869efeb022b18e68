// Package ffmpeg coordinates acquisition of the FFmpeg bundle: checking
// for an existing install, fetching an archive from a mirror, and
// installing it.
package ffmpeg

import (
	"os"
	"path/filepath"
	"runtime"
)

// ExecutableRelPath returns the expected executable path relative to the
// install root for the given platform (GOOS-style name).
func ExecutableRelPath(platform string) string {
	if platform == "windows" {
		return filepath.Join("bin", "ffmpeg.exe")
	}
	return filepath.Join("bin", "ffmpeg")
}

// ExecutablePath returns the absolute path of the FFmpeg executable
// under installRoot for the current platform.
func ExecutablePath(installRoot string) string {
	return filepath.Join(installRoot, ExecutableRelPath(runtime.GOOS))
}

// IsAvailable reports whether the expected executable exists under
// installRoot as a regular file. No side effects, no network; the
// existence of this path is the sole persisted truth of "installed",
// so it is safe to consult before every operation.
func IsAvailable(installRoot string) bool {
	return isAvailableFor(installRoot, runtime.GOOS)
}

func isAvailableFor(installRoot, platform string) bool {
	info, err := os.Stat(filepath.Join(installRoot, ExecutableRelPath(platform)))
	return err == nil && info.Mode().IsRegular()
}

// DefaultInstallRoot returns the per-user FFmpeg directory used when the
// caller does not specify one.
func DefaultInstallRoot() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "ffgrab", "FFmpeg")
}
