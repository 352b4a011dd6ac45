package cvgen

import (
	"mime"
	"strings"
)

var supportedAudioTypes = map[string]struct{}{
	"audio/wav":   {},
	"audio/x-wav": {},
	"audio/mpeg":  {},
	"audio/mp4":   {},
	"audio/ogg":   {},
	"audio/webm":  {},
	"video/mp4":   {},
}

// IsSupportedAudioType reports whether the declared content type of an
// upload is accepted for transcription. Parameters such as codecs are
// ignored, so "audio/webm;codecs=opus" is accepted.
func IsSupportedAudioType(contentType string) bool {
	mediaType := strings.TrimSpace(contentType)
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	} else if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	_, ok := supportedAudioTypes[strings.ToLower(strings.TrimSpace(mediaType))]
	return ok
}

// SupportedAudioTypes lists the accepted audio MIME types.
func SupportedAudioTypes() []string {
	return []string{"audio/wav", "audio/x-wav", "audio/mpeg", "audio/mp4", "audio/ogg", "audio/webm", "video/mp4"}
}
