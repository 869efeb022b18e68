package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tanq16/ffgrab/internal/utils"
)

// probeMirror issues a HEAD request and reports the content length.
// ErrMirrorUnreachable covers connection failures and error statuses;
// ErrRangeNotSupported means the mirror answered but a ranged fetch
// cannot be planned against it.
func probeMirror(ctx context.Context, link string, client *utils.FFgrabHTTPClient) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, "HEAD", link, nil)
	if err != nil {
		return 0, fmt.Errorf("error creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMirrorUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("%w: status %d", ErrMirrorUnreachable, resp.StatusCode)
	}
	if resp.Header.Get("Accept-Ranges") != "bytes" {
		return 0, ErrRangeNotSupported
	}
	contentLength := resp.Header.Get("Content-Length")
	if contentLength == "" {
		return 0, ErrRangeNotSupported
	}
	size, err := strconv.ParseInt(contentLength, 10, 64)
	if err != nil || size <= 0 {
		return 0, ErrRangeNotSupported
	}
	return size, nil
}
