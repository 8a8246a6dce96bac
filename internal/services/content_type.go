package services

import (
	"io"
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultContentType is used when neither sniffing nor the extension gives an answer
const DefaultContentType = "application/octet-stream"

// sniffLen matches what net/http and mimetype inspect
const sniffLen = 512

// detectContentType sniffs the head of seekable readers and rewinds them.
// Other readers are classified by key extension only and returned untouched.
func detectContentType(key string, r io.Reader) (string, io.Reader) {
	if rs, ok := r.(io.ReadSeeker); ok {
		start, err := rs.Seek(0, io.SeekCurrent)
		if err == nil {
			buf := make([]byte, sniffLen)
			n, _ := io.ReadFull(rs, buf)
			if _, err := rs.Seek(start, io.SeekStart); err == nil && n > 0 {
				if mt := mimetype.Detect(buf[:n]); mt != nil && !isGeneric(mt.String()) {
					return mt.String(), rs
				}
			}
		}
	}
	return contentTypeFromExtension(key), r
}

func contentTypeFromExtension(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return DefaultContentType
}

// isGeneric reports detections that say less than a known extension would
func isGeneric(contentType string) bool {
	return contentType == DefaultContentType || strings.HasPrefix(contentType, "text/plain")
}
