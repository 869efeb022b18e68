package ffmpeg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Built-in mirror lists per platform, in preference order. Each mirror
// hosts the same bundle layout: a version-named top-level folder with a
// bin subfolder inside.
var defaultMirrors = map[string][]string{
	"windows": {
		"https://www.gyan.dev/ffmpeg/builds/ffmpeg-release-essentials.zip",
		"https://github.com/BtbN/FFmpeg-Builds/releases/download/latest/ffmpeg-master-latest-win64-gpl.zip",
		"https://github.com/GyanD/codexffmpeg/releases/download/7.1/ffmpeg-7.1-essentials_build.zip",
	},
	"darwin": {
		"https://evermeet.cx/ffmpeg/ffmpeg-6.0.zip",
	},
	"linux": {
		"https://johnvansickle.com/ffmpeg/releases/ffmpeg-release-amd64-static.tar.xz",
	},
}

// Mirrors returns the candidate URLs for a platform in preference order.
// Unknown platforms fall back to the linux list.
func Mirrors(platform string) []string {
	if urls, ok := defaultMirrors[platform]; ok {
		return append([]string(nil), urls...)
	}
	return append([]string(nil), defaultMirrors["linux"]...)
}

// MirrorSet is an optional user-provided replacement for the built-in
// mirror lists, keyed by platform.
type MirrorSet map[string][]string

// LoadMirrorsFile reads a YAML mirror override file of the form:
//
//	windows:
//	  - https://mirror.example.com/ffmpeg-win64.zip
//	linux:
//	  - s3://builds/ffmpeg/ffmpeg-static.tar.xz
func LoadMirrorsFile(path string) (MirrorSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading mirrors file: %v", err)
	}
	var set MirrorSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("error parsing mirrors file: %v", err)
	}
	return set, nil
}

// For returns the override list for a platform, or the built-in list
// when the set has no entry for it.
func (m MirrorSet) For(platform string) []string {
	if urls, ok := m[platform]; ok && len(urls) > 0 {
		return append([]string(nil), urls...)
	}
	return Mirrors(platform)
}
