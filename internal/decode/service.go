// internal/decode/service.go
package decode

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"eligibility-workers/internal/common/config"
	commonerrors "eligibility-workers/internal/common/errors"
	httpclient "eligibility-workers/internal/common/http"
)

// ServiceDecoder decodes documents through an external decode service.
// PDF, PNG and XLSX files are posted for text/table/sheet extraction;
// JSON files are read straight from disk.
type ServiceDecoder struct {
	baseURL string
	client  *httpclient.Client
}

func NewServiceDecoder(cfg config.DecodeConfig) *ServiceDecoder {
	return &ServiceDecoder{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpclient.NewClient(config.GetDuration(cfg.Timeout)),
	}
}

type decodeRequest struct {
	Filename string `json:"filename"`
	Format   string `json:"format"`
	Payload  string `json:"payload"` // base64
}

type decodeResponse struct {
	Text   string                `json:"text"`
	Tables [][]string            `json:"tables"`
	Sheets map[string][][]string `json:"sheets"`
}

func (d *ServiceDecoder) Decode(ctx context.Context, path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, commonerrors.NewDocumentReadFailedError(path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		return &Content{Raw: data}, nil
	}

	reqBody, err := json.Marshal(decodeRequest{
		Filename: filepath.Base(path),
		Format:   strings.TrimPrefix(ext, "."),
		Payload:  base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/v1/decode", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	name := filepath.Base(path)

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, commonerrors.NewDecodeTimeoutError(name)
		}
		return nil, commonerrors.NewDecodeServiceFailedError(name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, commonerrors.NewDecodeServiceFailedError(name, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var parsed decodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, commonerrors.NewDecodeServiceFailedError(name, fmt.Errorf("malformed response: %w", err))
	}

	return &Content{
		Text:   parsed.Text,
		Tables: parsed.Tables,
		Sheets: parsed.Sheets,
	}, nil
}

var _ Decoder = (*ServiceDecoder)(nil)
