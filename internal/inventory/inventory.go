// Package inventory reads, writes, builds and validates the JSON
// manifests that drive filesystem and WebDAV ingestion. A manifest is
// the durable, hand-editable record of what a source contains; runs
// consume it sorted by size and diff it against backend state before
// any content is read.
package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

// Record is one entry in an inventory manifest. Metadata values keep
// their JSON types so hand-edited manifests round-trip unchanged.
type Record struct {
	// Path is relative to the manifest's base directory or WebDAV
	// collection. It doubles as the item URI.
	Path string `json:"path"`

	// SHA256 is the hex digest of the file content at build time.
	SHA256 string `json:"sha256"`

	// Metadata carries at least "size" and "content-type", plus any
	// keys a user adds by hand.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Size returns the integer metadata.size. A record without a usable
// size is rejected outright, manifest ordering depends on it.
func (r Record) Size() (int64, error) {
	v, ok := r.Metadata["size"]
	if !ok {
		return 0, errors.New("missing metadata.size")
	}
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("size %q is not an integer", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("size has unusable type %T", v)
	}
}

// ContentType returns the metadata content-type and whether the key
// is present. A present non-string value counts as present but empty.
func (r Record) ContentType() (string, bool) {
	v, ok := r.Metadata["content-type"]
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, true
}

// Read loads and parses a manifest file.
func Read(path string) ([]Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}
	records, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("inventory %s: %w", path, err)
	}
	return records, nil
}

// Parse decodes manifest bytes. Both accepted shapes, a bare array
// and an object with a "data" key, yield the same record list. The
// result is sorted ascending by size so small files upload first.
func Parse(raw []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(raw)
	var records []Record
	switch {
	case len(trimmed) == 0:
		return nil, domain.ErrInvalidInventory
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInventory, err)
		}
	case trimmed[0] == '{':
		var envelope struct {
			Data []Record `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInventory, err)
		}
		if envelope.Data == nil {
			return nil, fmt.Errorf("%w: object form requires a data array", domain.ErrInvalidInventory)
		}
		records = envelope.Data
	default:
		return nil, domain.ErrInvalidInventory
	}

	for _, rec := range records {
		if _, err := rec.Size(); err != nil {
			return nil, fmt.Errorf("%w: record %q: %v", domain.ErrInvalidInventory, rec.Path, err)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		si, _ := records[i].Size()
		sj, _ := records[j].Size()
		return si < sj
	})
	return records, nil
}

// Write marshals records to path as indented JSON.
func Write(path string, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write inventory: %w", err)
	}
	return nil
}

// Items converts manifest records into diffable items. Content stays
// nil, manifest-driven runs read bytes only for items the backend
// reports as pending.
func Items(records []Record) []domain.Item {
	items := make([]domain.Item, 0, len(records))
	for _, rec := range records {
		contentType, _ := rec.ContentType()
		items = append(items, domain.Item{
			URI:         rec.Path,
			Kind:        domain.ItemKindFile,
			ContentHash: rec.SHA256,
			MIMEType:    contentType,
			Metadata:    stringMetadata(rec.Metadata),
		})
	}
	return items
}

// FromItems converts walked items into manifest records, rewriting
// URIs relative to base.
func FromItems(items []domain.Item, base string) []Record {
	records := make([]Record, 0, len(items))
	for _, item := range items {
		records = append(records, Record{
			Path:   RelativePath(item.URI, base),
			SHA256: item.ContentHash,
			Metadata: map[string]any{
				"size":         int64(len(item.Content)),
				"content-type": item.MIMEType,
			},
		})
	}
	return records
}

// RelativePath strips base from path, tolerating the absolute
// collection paths remote walkers report. A path outside base is
// returned with surrounding slashes trimmed rather than rejected.
func RelativePath(path, base string) string {
	p := strings.Trim(path, "/")
	b := strings.Trim(base, "/")
	switch {
	case b == "":
		return p
	case p == b:
		return ""
	case strings.HasPrefix(p, b+"/"):
		return p[len(b)+1:]
	default:
		return p
	}
}

// stringMetadata flattens manifest metadata into the string map items
// carry. Numeric sizes render without a decimal point.
func stringMetadata(meta map[string]any) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = metaString(v)
	}
	return out
}

func metaString(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	case bool:
		return strconv.FormatBool(n)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
