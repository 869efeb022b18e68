package fetch

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tanq16/ffgrab/internal/progress"
	"github.com/tanq16/ffgrab/internal/utils"
)

func testPayload(t *testing.T, size int) []byte {
	t.Helper()
	payload := make([]byte, size)
	if _, err := rand.Read(payload); err != nil {
		t.Fatalf("failed to generate payload: %v", err)
	}
	return payload
}

// rangeServer serves payload with full byte-range support, the way a
// well-behaved mirror does.
func rangeServer(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "archive.zip", time.Now(), bytes.NewReader(payload))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name string
		size int64
		n    int
		want int
	}{
		{"single connection", 1000, 1, 1},
		{"even split", 1000, 4, 4},
		{"uneven split", 1001, 4, 4},
		{"more connections than bytes", 3, 16, 3},
		{"zero connections clamps to one", 1000, 0, 1},
		{"negative connections clamps to one", 1000, -5, 1},
		{"above max clamps", 1000, 200, utils.MaxConnections},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments := Partition(tt.size, tt.n)
			if len(segments) != tt.want {
				t.Fatalf("expected %d segments, got %d", tt.want, len(segments))
			}
			if segments[0].Start != 0 {
				t.Errorf("first segment starts at %d, want 0", segments[0].Start)
			}
			if last := segments[len(segments)-1]; last.End != tt.size-1 {
				t.Errorf("last segment ends at %d, want %d", last.End, tt.size-1)
			}
			var covered int64
			for i, seg := range segments {
				if seg.End < seg.Start {
					t.Errorf("segment %d has end %d before start %d", i, seg.End, seg.Start)
				}
				if i > 0 && seg.Start != segments[i-1].End+1 {
					t.Errorf("segment %d starts at %d, not contiguous with previous end %d", i, seg.Start, segments[i-1].End)
				}
				covered += seg.End - seg.Start + 1
			}
			if covered != tt.size {
				t.Errorf("segments cover %d bytes, want %d", covered, tt.size)
			}
		})
	}
}

func TestMultiFetchRoundTrip(t *testing.T) {
	payload := testPayload(t, 10*1024*1024)
	server := rangeServer(t, payload)
	client := utils.NewHTTPClient(utils.HTTPClientConfig{})

	for _, connections := range []int{1, 4, 16} {
		t.Run(fmt.Sprintf("connections=%d", connections), func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "archive.zip")
			rep := progress.NewReporter(nil, 0)
			err := MultiFetch(context.Background(), server.URL, int64(len(payload)), dest, connections, client, rep)
			if err != nil {
				t.Fatalf("MultiFetch failed: %v", err)
			}
			got, err := os.ReadFile(dest)
			if err != nil {
				t.Fatalf("failed to read output: %v", err)
			}
			if sha256.Sum256(got) != sha256.Sum256(payload) {
				t.Error("output content does not match payload")
			}
			if _, err := os.Stat(dest + ".part"); !os.IsNotExist(err) {
				t.Error("temp file left behind after success")
			}
		})
	}
}

func TestMultiFetchFailedSegment(t *testing.T) {
	payload := testPayload(t, 1024*1024)
	half := int64(len(payload)) / 2
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Ranges in the upper half of the file always fail.
		var start, end int64
		if _, err := fmt.Sscanf(r.Header.Get("Range"), "bytes=%d-%d", &start, &end); err == nil && start >= half {
			http.Error(w, "upstream error", http.StatusInternalServerError)
			return
		}
		http.ServeContent(w, r, "archive.zip", time.Now(), bytes.NewReader(payload))
	}))
	t.Cleanup(server.Close)

	dest := filepath.Join(t.TempDir(), "archive.zip")
	client := utils.NewHTTPClient(utils.HTTPClientConfig{})
	rep := progress.NewReporter(nil, 0)

	err := MultiFetch(context.Background(), server.URL, int64(len(payload)), dest, 4, client, rep)
	if !errors.Is(err, ErrPartialTransfer) {
		t.Fatalf("expected ErrPartialTransfer, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("destination file exists after failed fetch")
	}
	if _, statErr := os.Stat(dest + ".part"); !os.IsNotExist(statErr) {
		t.Error("temp file left behind after failed fetch")
	}
}

func TestMultiFetchCancel(t *testing.T) {
	payload := testPayload(t, 1024*1024)
	server := rangeServer(t, payload)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dest := filepath.Join(t.TempDir(), "archive.zip")
	client := utils.NewHTTPClient(utils.HTTPClientConfig{})
	err := MultiFetch(ctx, server.URL, int64(len(payload)), dest, 4, client, progress.NewReporter(nil, 0))
	if err == nil {
		t.Fatal("expected error from cancelled fetch")
	}
	if _, statErr := os.Stat(dest + ".part"); !os.IsNotExist(statErr) {
		t.Error("temp file left behind after cancelled fetch")
	}
}

func TestMultiStrategyAttempt(t *testing.T) {
	payload := testPayload(t, 256*1024)
	server := rangeServer(t, payload)

	dest := filepath.Join(t.TempDir(), "archive.zip")
	strategy := &MultiStrategy{Connections: 4}
	if err := strategy.Attempt(context.Background(), server.URL, dest, progress.NewReporter(nil, 0)); err != nil {
		t.Fatalf("Attempt failed: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("output content does not match payload")
	}
}

func TestMultiStrategyAttemptCancelledBeforeProbe(t *testing.T) {
	contacted := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case contacted <- struct{}{}:
		default:
		}
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dest := filepath.Join(t.TempDir(), "archive.zip")
	strategy := &MultiStrategy{Connections: 4}
	err := strategy.Attempt(ctx, server.URL, dest, progress.NewReporter(nil, 0))
	if err == nil {
		t.Fatal("expected error from cancelled attempt")
	}
	select {
	case <-contacted:
		t.Error("probe request went out despite cancelled context")
	default:
	}
}

func TestMultiStrategyAttemptRangeless(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No Accept-Ranges and no Content-Length on purpose.
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		fmt.Fprint(w, strings.Repeat("x", 1024))
	}))
	t.Cleanup(server.Close)

	dest := filepath.Join(t.TempDir(), "archive.zip")
	strategy := &MultiStrategy{Connections: 4}
	err := strategy.Attempt(context.Background(), server.URL, dest, progress.NewReporter(nil, 0))
	if !errors.Is(err, ErrRangeNotSupported) {
		t.Fatalf("expected ErrRangeNotSupported, got %v", err)
	}
}
