// Package clihelpers collects the small CLI-facing helpers the teacher kept
// in internal/utils/functions.go: header-argument parsing, a random
// User-Agent pool, and output-path collision avoidance.
package clihelpers

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:135.0) Gecko/20100101 Firefox/135.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_3 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Mobile/15E148 Safari/604.1",
}

// RandomUserAgent returns a User-Agent string from a small built-in pool,
// for the "--ua randomize" case.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// ParseHeaderArgs turns repeated "--header Key: Value" flag values into a
// header map.
func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string, len(headers))
	for _, h := range headers {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) != 2 {
			continue
		}
		result[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return result
}

// RenewOutputPath appends a "-(N)" suffix until it finds a path that doesn't
// already exist, avoiding silently overwriting a prior run's output.
func RenewOutputPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-(%d)%s", name, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// ParseResolution parses a "WxH" flag value.
func ParseResolution(s string) (w, h int, ok bool) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	var we, he error
	w, we = atoi(parts[0])
	h, he = atoi(parts[1])
	return w, h, we == nil && he == nil
}

func atoi(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n)
	return n, err
}
