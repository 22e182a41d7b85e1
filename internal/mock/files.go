package mock

import (
	"strings"

	"github.com/kolah/piglet/internal/model"
)

type fileKind struct {
	mediaType string
	data      string
}

var (
	filePNG = fileKind{
		mediaType: "image/png",
		data:      "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==",
	}
	fileJPEG = fileKind{
		mediaType: "image/jpeg",
		data:      "/9j/4AAQSkZJRgABAQEASABIAAD/2wBDAP//////////////////////////////////////////////////////////////////////////////////////wgALCAABAAEBAREA/8QAFBABAAAAAAAAAAAAAAAAAAAAAP/aAAgBAQABPxA=",
	}
	filePDF = fileKind{
		mediaType: "application/pdf",
		data:      "JVBERi0xLjQKMSAwIG9iaiA8PC9UeXBlIC9DYXRhbG9nIC9QYWdlcyAyIDAgUj4+IGVuZG9iagoyIDAgb2JqIDw8L1R5cGUgL1BhZ2VzIC9LaWRzIFtdIC9Db3VudCAwPj4gZW5kb2JqCnRyYWlsZXIgPDwvUm9vdCAxIDAgUj4+CiUlRU9GCg==",
	}
	fileText = fileKind{
		mediaType: "text/plain",
		data:      "SGVsbG8sIFdvcmxkIQo=",
	}
)

// fileStub returns a data URI for a binary schema. contentMediaType wins
// over the field name hint; png is the default.
func fileStub(s *model.Schema, hint string) string {
	kind := fileKindFor(s.ContentMediaType, hint)
	return "data:" + kind.mediaType + ";base64," + kind.data
}

func fileKindFor(mediaType, hint string) fileKind {
	if kind, ok := matchFileKind(strings.ToLower(mediaType)); ok {
		return kind
	}
	h := strings.ToLower(hint)
	switch {
	case strings.Contains(h, "pdf"):
		return filePDF
	case strings.Contains(h, "jpg"), strings.Contains(h, "jpeg"):
		return fileJPEG
	case strings.Contains(h, "txt"), strings.Contains(h, "text"):
		return fileText
	}
	return filePNG
}

func matchFileKind(mediaType string) (fileKind, bool) {
	switch {
	case mediaType == "":
		return fileKind{}, false
	case strings.Contains(mediaType, "pdf"):
		return filePDF, true
	case strings.Contains(mediaType, "jpeg"), strings.Contains(mediaType, "jpg"):
		return fileJPEG, true
	case strings.HasPrefix(mediaType, "text/"):
		return fileText, true
	case strings.Contains(mediaType, "png"), strings.HasPrefix(mediaType, "image/"):
		return filePNG, true
	}
	return fileKind{}, false
}
