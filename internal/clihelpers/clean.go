package clihelpers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tanq16/danzo-hls/internal/danzoerr"
)

// CleanPartials removes the ".part"/".ts" leftovers of an interrupted job
// for outputPath, mirroring the teacher's utils.CleanFunction.
func CleanPartials(outputPath string) error {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return danzoerr.New(danzoerr.Write, "reading output directory", err)
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, base+".part") || strings.HasPrefix(name, base+".ts") {
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				return danzoerr.New(danzoerr.Write, "removing partial file "+name, err)
			}
		}
	}
	return nil
}
