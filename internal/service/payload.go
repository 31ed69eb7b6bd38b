package service

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// Payload is one parsed multipart file buffer handed in by the HTTP layer.
type Payload struct {
	FieldName   string
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// PayloadClass groups the accepted formats for a payload slot. Photos and
// video thumbnails are both images; only the video slot takes video formats.
type PayloadClass string

const (
	PayloadImage PayloadClass = "image"
	PayloadVideo PayloadClass = "video"
)

var (
	imageFormats = []string{"jpeg", "jpg", "png", "gif", "webp"}
	videoFormats = []string{"mp4", "webm", "ogg", "mov", "avi"}
)

// ErrPayloadRejected wraps every classification failure.
var ErrPayloadRejected = errors.New("payload rejected")

// ClassifyPayload accepts or rejects a payload by file extension and
// declared MIME type. Both have to match the class; content sniffing beyond
// this is out of scope.
func ClassifyPayload(class PayloadClass, fileName, declaredMIME string) error {
	formats := imageFormats
	if class == PayloadVideo {
		formats = videoFormats
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(fileName)), ".")
	mime := strings.ToLower(declaredMIME)

	extOK := false
	mimeOK := false
	for _, f := range formats {
		if ext == f {
			extOK = true
		}
		if strings.Contains(mime, f) {
			mimeOK = true
		}
	}
	if !extOK || !mimeOK {
		return fmt.Errorf("%w: only %s files are allowed (%s)",
			ErrPayloadRejected, class, strings.Join(formats, ", "))
	}
	return nil
}

// checkPayload runs classification plus the per-slot size limit.
func checkPayload(p *Payload, class PayloadClass, maxBytes int64) error {
	if err := ClassifyPayload(class, p.FileName, p.ContentType); err != nil {
		return err
	}
	if maxBytes > 0 && p.Size > maxBytes {
		return fmt.Errorf("%w: file exceeds the %dMB limit", ErrPayloadRejected, maxBytes/(1<<20))
	}
	return nil
}
