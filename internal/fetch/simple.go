package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/tanq16/ffgrab/internal/progress"
	"github.com/tanq16/ffgrab/internal/utils"
)

// SimpleStrategy is the sequential single-connection fallback, used when
// the server reports no usable length or rejects range requests.
type SimpleStrategy struct {
	ClientConfig utils.HTTPClientConfig
}

func (s *SimpleStrategy) Name() string { return "simple" }

func (s *SimpleStrategy) Attempt(ctx context.Context, url, dest string, rep *progress.Reporter) error {
	client := utils.NewHTTPClient(s.ClientConfig)
	return SimpleFetch(ctx, url, dest, client, rep)
}

// SimpleFetch streams url into dest through a temp file. No parallelism
// and no pre-allocation; the length may be unknown. Any read error
// aborts the fetch and removes the temp file.
func SimpleFetch(ctx context.Context, url, dest string, client *utils.FFgrabHTTPClient, rep *progress.Reporter) error {
	log := utils.GetLogger("fetch/simple")
	tempPath := dest + ".part"
	outFile, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("error creating temp file: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		outFile.Close()
		os.Remove(tempPath)
		return err
	}
	req.Header.Set("Connection", "keep-alive")
	resp, err := client.Do(req)
	if err != nil {
		outFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("%w: %v", ErrMirrorUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		outFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("%w: status %d", ErrMirrorUnreachable, resp.StatusCode)
	}

	rep.Begin(resp.ContentLength)
	log.Debug().Int64("contentLength", resp.ContentLength).Msg("Starting streaming fetch")
	buffer := make([]byte, utils.DefaultBufferSize)
	for {
		select {
		case <-ctx.Done():
			outFile.Close()
			os.Remove(tempPath)
			return ctx.Err()
		default:
		}
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := outFile.Write(buffer[:bytesRead]); writeErr != nil {
				outFile.Close()
				os.Remove(tempPath)
				return fmt.Errorf("error writing to temp file: %v", writeErr)
			}
			rep.Add(int64(bytesRead))
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			outFile.Close()
			os.Remove(tempPath)
			return fmt.Errorf("error reading response body: %v", readErr)
		}
	}
	if err := outFile.Sync(); err != nil {
		outFile.Close()
		os.Remove(tempPath)
		return err
	}
	if err := outFile.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, dest); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("error finalizing output file: %v", err)
	}
	rep.Finish()
	log.Debug().Int64("bytes", rep.Transferred()).Str("dest", dest).Msg("Streaming fetch completed")
	return nil
}
