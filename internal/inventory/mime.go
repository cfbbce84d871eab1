package inventory

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// MIME types for document formats the system table misses or reports
// inconsistently across hosts. Checked before the system table so
// detection is deterministic.
var knownMIME = map[string]string{
	".md":   domain.MIMETypeMarkdown,
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// DetectMIME names content by extension first, then by sniffing the
// leading bytes, then falls back to octet-stream. Octet-stream is a
// recognised outcome here: validation rejects it rather than letting
// a guess through. Charset parameters are stripped.
func DetectMIME(path string, content []byte) string {
	if ext := strings.ToLower(filepath.Ext(path)); ext != "" {
		if typ, ok := knownMIME[ext]; ok {
			return typ
		}
		if typ := mime.TypeByExtension(ext); typ != "" {
			return bareType(typ)
		}
	}
	if len(content) > 0 {
		return bareType(http.DetectContentType(content))
	}
	return domain.MIMETypeOctetStream
}

// bareType drops MIME parameters such as "; charset=utf-8".
func bareType(typ string) string {
	if i := strings.IndexByte(typ, ';'); i >= 0 {
		return strings.TrimSpace(typ[:i])
	}
	return typ
}
