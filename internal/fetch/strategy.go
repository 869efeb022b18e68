// Package fetch downloads the FFmpeg archive from a ranked list of
// mirrors using the fastest usable transfer strategy.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/tanq16/ffgrab/internal/progress"
	"github.com/tanq16/ffgrab/internal/utils"
)

// Target describes one fetch operation. Immutable for the duration of
// the operation.
type Target struct {
	Mirrors          []string
	ScratchDir       string
	Connections      int
	HTTPClientConfig utils.HTTPClientConfig
}

// Strategy is one way of turning a mirror URL into a local archive file.
// Attempt downloads url to dest; any error means the driver moves on to
// the next strategy or mirror.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, url, dest string, rep *progress.Reporter) error
}

// Attempt records one strategy invocation against one mirror.
type Attempt struct {
	Mirror   string
	Strategy string
	Err      error
}

// Driver evaluates strategies in rank order across a target's mirrors
// until one produces a complete archive.
type Driver struct {
	strategies []Strategy
	s3         Strategy
	attempts   []Attempt
}

// NewDriver builds a driver from a ranked strategy list. aria2Path is
// the probed external tool path; empty means the tool strategy is
// skipped entirely (normal fallback, not an error).
func NewDriver(aria2Path string, target Target) *Driver {
	var ranked []Strategy
	if aria2Path != "" {
		ranked = append(ranked, &Aria2Strategy{Path: aria2Path, Connections: target.Connections})
	}
	ranked = append(ranked,
		&MultiStrategy{Connections: target.Connections, ClientConfig: target.HTTPClientConfig},
		&SimpleStrategy{ClientConfig: target.HTTPClientConfig},
	)
	return &Driver{
		strategies: ranked,
		s3:         &S3Strategy{Connections: target.Connections},
	}
}

// Fetch tries every mirror top-to-bottom, and for each mirror every
// strategy in rank order. It returns the path of the downloaded archive
// on the first success, or ErrAllMirrorsExhausted.
func (d *Driver) Fetch(ctx context.Context, target Target, rep *progress.Reporter) (string, error) {
	log := utils.GetLogger("fetch")
	for _, mirror := range target.Mirrors {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		dest := filepath.Join(target.ScratchDir, archiveName(mirror))
		for _, strategy := range d.strategiesFor(mirror) {
			log.Debug().Str("mirror", mirror).Str("strategy", strategy.Name()).Msg("Attempting fetch")
			rep.Message(fmt.Sprintf("Trying server %s...", mirrorHost(mirror)))
			err := strategy.Attempt(ctx, mirror, dest, rep)
			d.attempts = append(d.attempts, Attempt{Mirror: mirror, Strategy: strategy.Name(), Err: err})
			if err == nil {
				log.Info().Str("mirror", mirror).Str("strategy", strategy.Name()).Msg("Fetch succeeded")
				return dest, nil
			}
			if errors.Is(err, context.Canceled) {
				return "", err
			}
			log.Warn().Err(err).Str("mirror", mirror).Str("strategy", strategy.Name()).Msg("Fetch attempt failed")
			if errors.Is(err, ErrMirrorUnreachable) {
				break // no point trying other strategies on a dead mirror
			}
		}
	}
	return "", ErrAllMirrorsExhausted
}

// Attempts returns the record of strategy invocations made so far.
func (d *Driver) Attempts() []Attempt {
	return d.attempts
}

func (d *Driver) strategiesFor(mirror string) []Strategy {
	if strings.HasPrefix(mirror, "s3://") {
		return []Strategy{d.s3}
	}
	return d.strategies
}

// archiveName derives a unique local file name for a mirror's archive,
// preserving the extension so the installer can pick an extractor.
func archiveName(mirror string) string {
	ext := ".zip"
	if parsed, err := url.Parse(mirror); err == nil {
		base := path.Base(parsed.Path)
		switch {
		case strings.HasSuffix(base, ".tar.xz"):
			ext = ".tar.xz"
		case strings.HasSuffix(base, ".tar.gz"):
			ext = ".tar.gz"
		case strings.HasSuffix(base, ".tgz"):
			ext = ".tar.gz"
		}
	}
	return "ffmpeg-" + uuid.NewString()[:8] + ext
}

func mirrorHost(mirror string) string {
	if parsed, err := url.Parse(mirror); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return mirror
}
