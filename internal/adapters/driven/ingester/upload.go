package ingester

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strconv"
	"strings"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, `\"`)

// Upload sends one item's content and metadata into a batch. The file
// part carries the item's MIME type and the last URI segment as its
// filename; the full URI travels as a form field.
func (c *Client) Upload(ctx context.Context, source string, batchID int64, item domain.Item) error {
	meta := item.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"source", source},
		{"batch_id", strconv.FormatInt(batchID, 10)},
		{"uri", item.URI},
		{"metadata", string(metaJSON)},
	}
	for _, field := range fields {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return fmt.Errorf("encode upload: %w", err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="document"; filename="%s"`, quoteEscaper.Replace(path.Base(item.URI))))
	if item.MIMEType != "" {
		header.Set("Content-Type", item.MIMEType)
	}
	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("encode upload: %w", err)
	}
	if _, err := part.Write(item.Content); err != nil {
		return fmt.Errorf("encode upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("encode upload: %w", err)
	}

	_, err = c.do(ctx, "ingest document", http.MethodPost, "/document/ingest-document",
		w.FormDataContentType(), &buf, http.StatusCreated)
	return err
}
