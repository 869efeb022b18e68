package ffmpeg

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/tanq16/ffgrab/internal/fetch"
	"github.com/tanq16/ffgrab/internal/install"
	"github.com/tanq16/ffgrab/internal/progress"
	"github.com/tanq16/ffgrab/internal/utils"
)

// Config carries everything EnsureInstalled needs. Capability values
// (probed aria2 path, platform) are computed once by the caller and
// threaded through here; nothing is memoized at process scope.
type Config struct {
	InstallRoot      string
	Platform         string   // GOOS-style; empty means runtime.GOOS
	Mirrors          []string // override; empty means built-in list for Platform
	Connections      int
	Aria2Path        string // probed external tool; empty skips that strategy
	StatusInterval   time.Duration
	HTTPClientConfig utils.HTTPClientConfig
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.InstallRoot == "" {
		cfg.InstallRoot = DefaultInstallRoot()
	}
	if cfg.Platform == "" {
		cfg.Platform = runtime.GOOS
	}
	if len(cfg.Mirrors) == 0 {
		cfg.Mirrors = Mirrors(cfg.Platform)
	}
	if cfg.Connections <= 0 {
		cfg.Connections = utils.DefaultConnections
	}
	return cfg
}

// EnsureInstalled makes sure the FFmpeg bundle is present under the
// install root, downloading and installing it if needed. Status text is
// delivered through statusFn from the download goroutine; cancellation
// is cooperative through ctx. Returns true only if the availability
// check passes afterward.
func EnsureInstalled(ctx context.Context, c Config, statusFn progress.StatusFunc) bool {
	log := utils.GetLogger("ffmpeg")
	cfg := c.withDefaults()

	if isAvailableFor(cfg.InstallRoot, cfg.Platform) {
		log.Debug().Str("root", cfg.InstallRoot).Msg("FFmpeg already installed")
		return true
	}
	if err := os.MkdirAll(cfg.InstallRoot, 0755); err != nil {
		log.Error().Err(err).Str("root", cfg.InstallRoot).Msg("Cannot create install root")
		return false
	}
	scratchDir, err := utils.TempDir(cfg.InstallRoot)
	if err != nil {
		log.Error().Err(err).Msg("Cannot create scratch directory")
		return false
	}
	defer utils.CleanTempDirs(cfg.InstallRoot)

	rep := progress.NewReporter(statusFn, cfg.StatusInterval)
	target := fetch.Target{
		Mirrors:          cfg.Mirrors,
		ScratchDir:       scratchDir,
		Connections:      cfg.Connections,
		HTTPClientConfig: cfg.HTTPClientConfig,
	}
	driver := fetch.NewDriver(cfg.Aria2Path, target)
	archivePath, err := driver.Fetch(ctx, target, rep)
	if err != nil {
		log.Error().Err(err).Int("attempts", len(driver.Attempts())).Msg("Fetch failed")
		return false
	}

	rep.Message("Extracting FFmpeg...")
	if err := install.Install(archivePath, cfg.InstallRoot, ExecutableRelPath(cfg.Platform)); err != nil {
		log.Error().Err(err).Msg("Install failed")
		return false
	}
	if !isAvailableFor(cfg.InstallRoot, cfg.Platform) {
		log.Error().Str("root", cfg.InstallRoot).Msg("Executable missing after install")
		return false
	}
	rep.Message("FFmpeg ready")
	return true
}
