package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tanq16/ffgrab/internal/progress"
	"github.com/tanq16/ffgrab/internal/utils"
)

// MultiFetchTimeout bounds one whole parallel fetch, not one segment.
const MultiFetchTimeout = 300 * time.Second

// Segment is one contiguous byte range of the remote resource, fetched
// by one worker. Start and End are inclusive.
type Segment struct {
	ID    int
	Start int64
	End   int64
}

// Partition splits [0, size) into n contiguous segments of roughly equal
// length; the last segment absorbs the remainder. n is clamped to
// [1, MaxConnections] and never exceeds size.
func Partition(size int64, n int) []Segment {
	if n < 1 {
		n = 1
	}
	if n > utils.MaxConnections {
		n = utils.MaxConnections
	}
	if int64(n) > size {
		n = int(size)
	}
	if n < 1 {
		n = 1
	}
	segmentSize := size / int64(n)
	segments := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		start := int64(i) * segmentSize
		end := start + segmentSize - 1
		if i == n-1 {
			end = size - 1
		}
		segments = append(segments, Segment{ID: i, Start: start, End: end})
	}
	return segments
}

// MultiStrategy fetches a known-length resource through concurrent
// ranged requests writing disjoint offsets of one pre-allocated file.
type MultiStrategy struct {
	Connections  int
	ClientConfig utils.HTTPClientConfig
}

func (s *MultiStrategy) Name() string { return "multi" }

func (s *MultiStrategy) Attempt(ctx context.Context, url, dest string, rep *progress.Reporter) error {
	connections := s.Connections
	if connections <= 0 {
		connections = utils.DefaultConnections
	}
	cfg := s.ClientConfig
	cfg.HighThreadMode = connections > 5
	client := utils.NewHTTPClient(cfg)

	size, err := probeMirror(ctx, url, client)
	if err != nil {
		return err
	}
	return MultiFetch(ctx, url, size, dest, connections, client, rep)
}

// MultiFetch performs the parallel ranged download of url (known to be
// size bytes) into dest. Workers write at their own offsets, so final
// byte order does not depend on completion order. Any failed segment or
// byte-count mismatch fails the whole fetch; no partial file survives.
func MultiFetch(ctx context.Context, url string, size int64, dest string, connections int, client *utils.FFgrabHTTPClient, rep *progress.Reporter) error {
	log := utils.GetLogger("fetch/multi")
	ctx, cancel := context.WithTimeout(ctx, MultiFetchTimeout)
	defer cancel()

	tempPath := dest + ".part"
	tempFile, err := os.OpenFile(tempPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("error creating temp file: %v", err)
	}
	// Pre-allocate so workers can seek-and-write without truncation races.
	if err := tempFile.Truncate(size); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("error pre-allocating %d bytes: %v", size, err)
	}

	segments := Partition(size, connections)
	rep.Begin(size)
	log.Debug().Int64("size", size).Int("segments", len(segments)).Msg("Starting parallel fetch")

	var written atomic.Int64
	// Plain group on purpose: a failing segment must not cancel its
	// siblings, the aggregate check below decides the outcome.
	var g errgroup.Group
	for _, segment := range segments {
		segment := segment
		g.Go(func() error {
			n, err := fetchSegment(ctx, client, url, segment, tempFile, rep)
			written.Add(n)
			if err != nil {
				log.Warn().Err(err).Int("segment", segment.ID).Msg("Segment failed")
				return fmt.Errorf("segment %d: %w", segment.ID, err)
			}
			return nil
		})
	}
	fetchErr := g.Wait()
	closeErr := tempFile.Close()

	if ctx.Err() != nil {
		os.Remove(tempPath)
		return ctx.Err()
	}
	if fetchErr != nil || closeErr != nil {
		os.Remove(tempPath)
		return fmt.Errorf("%w: %d/%d bytes: %v", ErrPartialTransfer, written.Load(), size, fetchErr)
	}
	if written.Load() != size {
		os.Remove(tempPath)
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrPartialTransfer, written.Load(), size)
	}
	if err := os.Rename(tempPath, dest); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("error finalizing output file: %v", err)
	}
	rep.Finish()
	log.Debug().Int64("bytes", size).Str("dest", dest).Msg("Parallel fetch completed")
	return nil
}

// fetchSegment downloads one byte range into the shared output file at
// the segment's own offset. Returns the bytes written this attempt.
func fetchSegment(ctx context.Context, client *utils.FFgrabHTTPClient, url string, segment Segment, out *os.File, rep *progress.Reporter) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", segment.Start, segment.End))
	req.Header.Set("Connection", "keep-alive")
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	expected := segment.End - segment.Start + 1
	buffer := make([]byte, utils.DefaultBufferSize)
	var written int64
	for {
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if written+int64(bytesRead) > expected {
				return written, fmt.Errorf("server sent more than the requested range")
			}
			if _, writeErr := out.WriteAt(buffer[:bytesRead], segment.Start+written); writeErr != nil {
				return written, writeErr
			}
			written += int64(bytesRead)
			rep.Add(int64(bytesRead))
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return written, readErr
		}
	}
	if written != expected {
		return written, fmt.Errorf("size mismatch: expected %d bytes, got %d", expected, written)
	}
	return written, nil
}
