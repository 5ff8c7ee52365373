package cli

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/zainab-hr/ProjetProduits/internal/adapters/artifact"
	"github.com/zainab-hr/ProjetProduits/internal/domain/classifier"
	"github.com/zainab-hr/ProjetProduits/internal/domain/features"
	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
	"github.com/zainab-hr/ProjetProduits/pkg/logger"
)

type prediction struct {
	ProductName     string                  `json:"product_name"`
	PredictedGender types.Label             `json:"predicted_gender"`
	Partition       types.Partition         `json:"partition"`
	Confidence      float64                 `json:"confidence"`
	Probabilities   map[types.Label]float64 `json:"probabilities"`
}

func newPredictCommand() *cobra.Command {
	var modelPath, name, typ, group string

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Classify one product offline",
		Long: `Load a model bundle and classify one product without a running service.

Examples:
  productctl predict --model models/bundle.json --name "Robe longue" --type Dress`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			bundle, err := artifact.Load(ctx, modelPath)
			if err != nil {
				return err
			}
			c := classifier.New(bundle, classifier.WithLogger(logger.Named("classifier")))

			res, err := c.Classify(ctx, features.ServingInput(name, typ, group))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(prediction{
				ProductName:     name,
				PredictedGender: res.Label,
				Partition:       types.PartitionFor(res.Label.String()),
				Confidence:      res.Confidence,
				Probabilities:   res.Probabilities,
			}); err != nil {
				return fmt.Errorf("write prediction: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model", "m", "models/product_gender_classifier.json", "model bundle (.json, .yaml or .yml)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "product name (required)")
	cmd.Flags().StringVarP(&typ, "type", "t", "", "product type or category (required)")
	cmd.Flags().StringVarP(&group, "group", "g", "", "product group or description")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
