package main

import (
	"encoding/json"
	"fmt"

	"car-price/internal/artifacts"
	"car-price/internal/domain"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Price a single car offline",
	Long: `Runs encoder, network and the inverse log transform for one car against
the artifacts in ARTIFACTS_DIR and prints the prediction as JSON. Nothing is
written to the history.

Example:
  predict --brand Toyota --name Camry --body-type sedan --color white \
    --fuel-type gasoline --year 2020 --power 249`,
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.String("brand", "", "car brand")
	f.String("name", "", "car model name")
	f.String("body-type", "", "body type")
	f.String("color", "", "color")
	f.String("fuel-type", "", "fuel type")
	f.Int("year", 0, "production year")
	f.Int("power", 0, "engine power, hp")
	for _, name := range []string{"brand", "name", "body-type", "color", "fuel-type", "year", "power"} {
		_ = predictCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	car := domain.CarAttributes{}
	car.Brand, _ = f.GetString("brand")
	car.Name, _ = f.GetString("name")
	car.BodyType, _ = f.GetString("body-type")
	car.Color, _ = f.GetString("color")
	car.FuelType, _ = f.GetString("fuel-type")
	car.Year, _ = f.GetInt("year")
	car.Power, _ = f.GetInt("power")

	ctx := cmd.Context()
	bundle, err := artifacts.Load(ctx, cfg.Artifacts.Dir, log)
	if err != nil {
		return fmt.Errorf("failed to load model artifacts: %w", err)
	}

	if unknown := bundle.Encoder.UnknownColumns(car); len(unknown) > 0 {
		log.Warn("Unseen categorical values, using fallback classes", zap.Strings("columns", unknown))
	}

	price, logPrice, err := bundle.Predictor.Predict(ctx, bundle.Encoder.Encode(car))
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(domain.Prediction{
		Price:    price,
		Currency: domain.Currency,
		LogPrice: logPrice,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode prediction: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
