package filestore

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VideoPrefix is the directory (or key prefix) all video blobs are stored under.
const VideoPrefix = "videos"

//nolint:gochecknoglobals // compiled once
var extPattern = regexp.MustCompile(`^\.[A-Za-z0-9]{1,10}$`)

// GenerateName builds a unique blob name of the form
// video-<unix millis>-<uuid><ext>. The extension of originalName is kept so that
// players can infer the container; extensions with unexpected characters are dropped.
func GenerateName(originalName string, now time.Time) string {
	ext := filepath.Ext(filepath.Base(originalName))
	if !extPattern.MatchString(ext) {
		ext = ""
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("video-%d-%s%s", now.UnixMilli(), id, ext)
}

// PathFor returns the root-relative path of a blob name.
func PathFor(name string) string {
	return path.Join(VideoPrefix, name)
}
