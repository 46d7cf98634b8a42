package filestore

import (
	"mime"
	"strings"
)

// Video content types commonly produced by browsers and capture tools.
const (
	ContentTypeMP4       = "video/mp4"
	ContentTypeAVI       = "video/x-msvideo"
	ContentTypeMOV       = "video/quicktime"
	ContentTypeWMV       = "video/x-ms-wmv"
	ContentTypeVideoOGG  = "video/ogg"
	ContentTypeVideoWebM = "video/webm"
	ContentTypeMKV       = "video/x-matroska"

	ContentTypeOctetStream = "application/octet-stream"

	videoFamily = "video/"
)

// IsVideo reports whether contentType belongs to the video media family.
// Parameters such as "; codecs=avc1" are ignored.
func IsVideo(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, videoFamily) && len(mediaType) > len(videoFamily)
}
