package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zainab-hr/ProjetProduits/internal/domain/features"
	"github.com/zainab-hr/ProjetProduits/pkg/logger"
)

// ErrMissingColumn is returned when the interactions CSV lacks a required column.
var ErrMissingColumn = errors.New("missing column")

var articleColumns = []string{
	"article_id", "prod_name", "product_type_name", "product_group_name",
	"purchase_count", "like_count", "cart_count",
	"total_interactions", "male_interactions", "female_interactions",
	"total_purchases", "male_purchases", "female_purchases",
	"male_pct", "female_pct", "target_gender",
}

func newLabelCommand() *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "label",
		Short: "Build the per-article training table from raw interactions",
		Long: `Aggregate a customer/article interactions CSV into one row per article with
interaction counters, gender shares and the weak target label.

Examples:
  productctl label --input interactions.csv --output articles.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("open interactions: %w", err)
			}
			defer in.Close()

			rows, err := ReadInteractions(in)
			if err != nil {
				return err
			}
			table := features.BuildArticleTable(rows)

			out := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}
			if err := WriteArticles(out, table); err != nil {
				return err
			}

			counts := map[string]int{}
			for _, a := range table {
				counts[a.TargetGender.String()]++
			}
			logger.Named("label").Info(cmd.Context(), "article table built",
				logger.Int("interactions", len(rows)),
				logger.Int("articles", len(table)),
				logger.Any("labels", counts),
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "interactions CSV (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "article CSV (default stdout)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// ReadInteractions parses an interactions CSV with a header row. Columns are
// matched by name; extra columns are ignored.
func ReadInteractions(r io.Reader) ([]features.InteractionRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range []string{"article_id", "interaction_type"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	get := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []features.InteractionRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read interactions: %w", err)
		}
		rows = append(rows, features.InteractionRow{
			ArticleID:        get(rec, "article_id"),
			CustomerID:       get(rec, "customer_id"),
			ProdName:         get(rec, "prod_name"),
			ProductTypeName:  get(rec, "product_type_name"),
			ProductGroupName: get(rec, "product_group_name"),
			Gender:           get(rec, "gender"),
			InteractionType:  get(rec, "interaction_type"),
		})
	}
	return rows, nil
}

// WriteArticles writes the article table as CSV with a header row.
func WriteArticles(w io.Writer, table []features.ArticleFeatures) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(articleColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, a := range table {
		rec := []string{
			a.ArticleID, a.ProdName, a.ProductTypeName, a.ProductGroupName,
			strconv.Itoa(a.PurchaseCount), strconv.Itoa(a.LikeCount), strconv.Itoa(a.CartCount),
			strconv.Itoa(a.TotalInteractions), strconv.Itoa(a.MaleInteractions), strconv.Itoa(a.FemaleInteractions),
			strconv.Itoa(a.TotalPurchases), strconv.Itoa(a.MalePurchases), strconv.Itoa(a.FemalePurchases),
			strconv.FormatFloat(a.MalePct, 'f', -1, 64), strconv.FormatFloat(a.FemalePct, 'f', -1, 64),
			a.TargetGender.String(),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write article %s: %w", a.ArticleID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush articles: %w", err)
	}
	return nil
}
