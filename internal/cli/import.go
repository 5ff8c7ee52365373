package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/zainab-hr/ProjetProduits/internal/domain/model"
	"github.com/zainab-hr/ProjetProduits/pkg/logger"
)

// ErrImportRejected is returned when the service refuses a whole batch.
var ErrImportRejected = errors.New("import rejected")

const bulkImportPath = "/products/bulk-import"

// Importer posts products to a running service in chunks.
type Importer struct {
	baseURL   string
	client    *http.Client
	chunkSize int
	log       logger.Logger
}

// NewImporter creates an Importer for the service at baseURL.
func NewImporter(baseURL string, timeout time.Duration, chunkSize int) *Importer {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	return &Importer{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
		chunkSize: chunkSize,
		log:       logger.OrGet(nil, "import"),
	}
}

// Import sends items chunk by chunk and merges the outcomes. Failure indices
// refer to positions in items.
func (im *Importer) Import(ctx context.Context, items []model.ProductInput) (model.BatchOutcome, error) {
	total := model.BatchOutcome{Errors: []model.BatchFailure{}}
	for start := 0; start < len(items); start += im.chunkSize {
		end := min(start+im.chunkSize, len(items))

		out, err := im.post(ctx, items[start:end])
		if err != nil {
			return total, fmt.Errorf("chunk %d-%d: %w", start, end-1, err)
		}
		total.Total += out.Total
		total.Homme += out.Homme
		total.Femme += out.Femme
		for _, f := range out.Errors {
			f.Index += start
			total.Errors = append(total.Errors, f)
		}
		im.log.Info(ctx, "chunk imported",
			logger.Int("from", start),
			logger.Int("to", end-1),
			logger.Int("homme", out.Homme),
			logger.Int("femme", out.Femme),
			logger.Int("failed", len(out.Errors)),
		)
	}
	return total, nil
}

func (im *Importer) post(ctx context.Context, items []model.ProductInput) (model.BatchOutcome, error) {
	var out model.BatchOutcome

	body, err := json.Marshal(items)
	if err != nil {
		return out, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, im.baseURL+bulkImportPath, bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := im.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("post %s: %w", bulkImportPath, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &e) == nil && e.Message != "" {
			return out, fmt.Errorf("%w: %d %s: %s", ErrImportRejected, resp.StatusCode, e.Code, e.Message)
		}
		return out, fmt.Errorf("%w: status %d", ErrImportRejected, resp.StatusCode)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode outcome: %w", err)
	}
	return out, nil
}

// ReadProducts decodes a JSON array of products.
func ReadProducts(r io.Reader) ([]model.ProductInput, error) {
	var items []model.ProductInput
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return items, nil
}

func newImportCommand() *cobra.Command {
	var (
		baseURL   string
		file      string
		timeout   time.Duration
		chunkSize int
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk import products into a running service",
		Long: `Read a JSON array of products and post it to /products/bulk-import, chunked
to respect the service's batch limit. Prints the merged batch outcome.

Examples:
  productctl import --url http://localhost:8000 --file products.json
  productctl import --file products.json --chunk-size 200 --timeout 2m`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open products: %w", err)
			}
			defer f.Close()

			items, err := ReadProducts(f)
			if err != nil {
				return err
			}

			out, err := NewImporter(baseURL, timeout, chunkSize).Import(cmd.Context(), items)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("write outcome: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&baseURL, "url", "u", "http://localhost:8000", "base URL of the service")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON array of products (required)")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "HTTP request timeout per chunk")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 1000, "products per request")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
