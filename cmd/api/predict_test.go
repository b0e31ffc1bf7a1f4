package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"car-price/internal/domain"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetPredictFlags undoes flag values left behind by a previous Execute
func resetPredictFlags() {
	predictCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

func TestPredictCommand_MatchesFixtureNetwork(t *testing.T) {
	t.Setenv("ARTIFACTS_DIR", "../../internal/artifacts/testdata")
	t.Setenv("SERVER_ENV", "production")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"predict",
		"--brand", "Toyota",
		"--name", "Camry",
		"--body-type", "sedan",
		"--color", "white",
		"--fuel-type", "gasoline",
		"--year", "2020",
		"--power", "249",
	})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		resetPredictFlags()
	})

	require.NoError(t, rootCmd.Execute())

	var prediction domain.Prediction
	require.NoError(t, json.Unmarshal(out.Bytes(), &prediction))
	assert.InDelta(t, 1848711.48, prediction.Price, 0.01)
	assert.InDelta(t, 14.43, prediction.LogPrice, 1e-9)
	assert.Equal(t, "RUB", prediction.Currency)
	assert.Empty(t, prediction.HistoryID)
}

func TestPredictCommand_RequiresAllFields(t *testing.T) {
	t.Setenv("ARTIFACTS_DIR", "../../internal/artifacts/testdata")

	resetPredictFlags()
	rootCmd.SetArgs([]string{"predict", "--brand", "Toyota"})
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetErr(nil)
		resetPredictFlags()
	})

	assert.Error(t, rootCmd.Execute())
}
