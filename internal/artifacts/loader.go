package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"car-price/internal/domain"
	"car-price/internal/features"
	"car-price/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Artifact file names inside the artifacts directory
const (
	ModelFile        = "model.json"
	ScalerFile       = "scaler.json"
	EncodersFile     = "encoders.json"
	FeatureInfoFile  = "feature_info.json"
	UniqueValuesFile = "unique_values.json"
)

type modelDocument struct {
	Layers []model.DenseLayer `json:"layers"`
}

type scalerDocument struct {
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
}

// Bundle holds the fitted artifacts. It is built once and only read afterwards.
type Bundle struct {
	Encoder     *features.Encoder
	Network     *model.DenseNetwork
	Predictor   *model.Predictor
	FeatureInfo domain.FeatureInfo
	Reference   domain.ReferenceValues
}

// Load reads every artifact in dir and cross-checks them
func Load(ctx context.Context, dir string, logger *zap.Logger) (*Bundle, error) {
	var (
		network   modelDocument
		scaler    scalerDocument
		encoders  map[string][]string
		info      domain.FeatureInfo
		reference domain.ReferenceValues
	)

	g, gctx := errgroup.WithContext(ctx)
	for name, dest := range map[string]interface{}{
		ModelFile:        &network,
		ScalerFile:       &scaler,
		EncodersFile:     &encoders,
		FeatureInfoFile:  &info,
		UniqueValuesFile: &reference,
	} {
		path := filepath.Join(dir, name)
		g.Go(func() error {
			return readJSON(gctx, path, dest)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	numeric, err := features.NewNumericScaler(scaler.Features, scaler.Mean, scaler.Scale)
	if err != nil {
		return nil, fmt.Errorf("failed to build scaler: %w", err)
	}

	categorical := make(map[string]*features.CategoryEncoder, len(encoders))
	for col, classes := range encoders {
		enc, err := features.NewCategoryEncoder(classes)
		if err != nil {
			return nil, fmt.Errorf("failed to build encoder for %q: %w", col, err)
		}
		categorical[col] = enc
	}

	encoder, err := features.NewEncoder(numeric, categorical, info)
	if err != nil {
		return nil, fmt.Errorf("failed to build feature encoder: %w", err)
	}

	dense, err := model.NewDenseNetwork(network.Layers)
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}
	if dense.InputDim() != features.VectorLength {
		return nil, fmt.Errorf("model expects %d features, encoder produces %d", dense.InputDim(), features.VectorLength)
	}

	logger.Info("Model artifacts loaded",
		zap.String("dir", dir),
		zap.Int("layers", len(network.Layers)),
		zap.Int("brands", len(reference.Brands)),
		zap.Float64("test_mae", info.Metrics.TestMAE),
	)

	return &Bundle{
		Encoder:     encoder,
		Network:     dense,
		Predictor:   model.NewPredictor(dense),
		FeatureInfo: info,
		Reference:   reference,
	}, nil
}

// readJSON skips the read once ctx is done, which is the case as soon as a
// sibling artifact has failed
func readJSON(ctx context.Context, path string, dest interface{}) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("skipped artifact %s: %w", filepath.Base(path), err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode artifact %s: %w", filepath.Base(path), err)
	}
	return nil
}
