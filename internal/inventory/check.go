package inventory

import (
	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// Archive and catch-all content types the backend will not process.
var unsupportedContentTypes = map[string]bool{
	"application/zip":              true,
	"application/x-zip-compressed": true,
	domain.MIMETypeOctetStream:     true,
	"application/x-rar-compressed": true,
	"application/x-7z-compressed":  true,
}

// Validation is the checked outcome for one record.
type Validation struct {
	Path        string
	ContentType string
	Valid       bool
	Reason      string
}

// Check validates records against the ingestion rules: the content
// type must be present and must not be an archive or octet-stream,
// and extensions longer than four characters are rejected. When more
// than one rule fails, the extension reason wins.
func Check(records []Record) []Validation {
	out := make([]Validation, 0, len(records))
	for _, rec := range records {
		contentType, ok := rec.ContentType()
		out = append(out, validate(rec.Path, contentType, ok))
	}
	return out
}

// CheckItems applies the same rules to walked items.
func CheckItems(items []domain.Item) []Validation {
	out := make([]Validation, 0, len(items))
	for _, item := range items {
		out = append(out, validate(item.URI, item.MIMEType, item.MIMEType != ""))
	}
	return out
}

func validate(path, contentType string, hasType bool) Validation {
	v := Validation{Path: path, ContentType: contentType, Valid: true}
	switch {
	case !hasType:
		v.Valid = false
		v.Reason = "No content type"
	case unsupportedContentTypes[contentType]:
		v.Valid = false
		v.Reason = "Unsupported content type"
	}
	if ext := domain.PathExtension(path); len(ext) > 4 {
		v.Valid = false
		v.Reason = "Unsupported file extension " + ext
	}
	return v
}

// Valid filters records down to those that pass Check, preserving
// order. This is the skip-invalid behaviour of run commands.
func Valid(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for i, v := range Check(records) {
		if v.Valid {
			out = append(out, records[i])
		}
	}
	return out
}

// ValidItems filters items down to those that pass CheckItems.
func ValidItems(items []domain.Item) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for i, v := range CheckItems(items) {
		if v.Valid {
			out = append(out, items[i])
		}
	}
	return out
}
