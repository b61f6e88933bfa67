package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfirmFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "confirm"}
	c.Flags().Float64("pre-tax", 0, "")
	c.Flags().Float64("tax", 0, "")
	c.Flags().Float64("total", 0, "")
	c.Flags().String("rate", "", "")
	require.NoError(t, c.Flags().Parse(args))
	return c
}

func TestConfirmedAmounts(t *testing.T) {
	t.Run("only changed flags are set", func(t *testing.T) {
		amounts, err := confirmedAmounts(newConfirmFlags(t, "--pre-tax", "0", "--rate", "5,5"))
		require.NoError(t, err)

		require.NotNil(t, amounts.PreTaxAmount)
		assert.Equal(t, 0.0, *amounts.PreTaxAmount)
		assert.Nil(t, amounts.TaxAmount)
		assert.Nil(t, amounts.TotalAmount)
		require.NotNil(t, amounts.TaxRatePercent)
		assert.Equal(t, 5.5, *amounts.TaxRatePercent)
	})

	t.Run("rate is read as a percentage", func(t *testing.T) {
		for raw, want := range map[string]float64{"1": 1, "0.5": 0.5, "20 %": 20} {
			amounts, err := confirmedAmounts(newConfirmFlags(t, "--rate", raw))
			require.NoError(t, err, raw)
			assert.Equal(t, want, *amounts.TaxRatePercent, raw)
		}
	})

	t.Run("invalid rate", func(t *testing.T) {
		for _, raw := range []string{"abc", "-20", "150"} {
			_, err := confirmedAmounts(newConfirmFlags(t, "--rate", raw))
			assert.Error(t, err, raw)
		}
	})
}

func TestReadFields(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "extraction.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"montant_ttc": "120,00", "fournisseur": "EDF"}`), 0o600))

	fields, err := readFields(path)
	require.NoError(t, err)
	assert.Equal(t, "120,00", fields["montant_ttc"])
	assert.Equal(t, "EDF", fields["fournisseur"])

	bad := filepath.Join(dir, "list.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[1, 2]`), 0o600))
	_, err = readFields(bad)
	assert.Error(t, err)

	_, err = readFields(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "EDF", truncate("EDF", 24))
	assert.Equal(t, "Électricit…", truncate("Électricité de France", 11))
}
