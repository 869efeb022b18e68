package ffmpeg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMirrors(t *testing.T) {
	for _, platform := range []string{"windows", "darwin", "linux"} {
		urls := Mirrors(platform)
		if len(urls) == 0 {
			t.Errorf("no mirrors for %s", platform)
		}
	}
	if len(Mirrors("windows")) < 2 {
		t.Error("windows should have fallback mirrors")
	}
	// Unknown platforms get the static linux build.
	unknown := Mirrors("plan9")
	linux := Mirrors("linux")
	if len(unknown) != len(linux) || unknown[0] != linux[0] {
		t.Error("unknown platform should fall back to linux mirrors")
	}
}

func TestMirrorsReturnsCopy(t *testing.T) {
	first := Mirrors("linux")
	first[0] = "https://mutated.example.com/x.tar.xz"
	if Mirrors("linux")[0] == first[0] {
		t.Error("mutating the returned slice changed the built-in list")
	}
}

func TestLoadMirrorsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirrors.yaml")
	content := `windows:
  - https://mirror.example.com/ffmpeg-win64.zip
linux:
  - s3://builds/ffmpeg/ffmpeg-static.tar.xz
  - https://mirror.example.com/ffmpeg-linux.tar.xz
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	set, err := LoadMirrorsFile(path)
	if err != nil {
		t.Fatalf("LoadMirrorsFile failed: %v", err)
	}
	if len(set["linux"]) != 2 || !strings.HasPrefix(set["linux"][0], "s3://") {
		t.Errorf("unexpected linux mirrors: %v", set["linux"])
	}

	// Platforms present in the file override, absent ones keep defaults.
	if got := set.For("windows"); len(got) != 1 {
		t.Errorf("windows override = %v", got)
	}
	if got := set.For("darwin"); len(got) != len(Mirrors("darwin")) || got[0] != Mirrors("darwin")[0] {
		t.Errorf("darwin should use built-in mirrors, got %v", got)
	}
}

func TestLoadMirrorsFileErrors(t *testing.T) {
	if _, err := LoadMirrorsFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("windows: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMirrorsFile(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
