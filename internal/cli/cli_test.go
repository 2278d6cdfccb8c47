package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ledger-reconcile/internal/adapters/statement"
	"github.com/eshaffer321/ledger-reconcile/internal/application/service"
	"github.com/eshaffer321/ledger-reconcile/internal/domain/reconcile"
	"github.com/eshaffer321/ledger-reconcile/internal/infrastructure/storage"
)

const statementCSV = `id,date,amount,description,type
s1,2024-08-11,-29.90,PAGAMENTO NETFLIX,expense
s2,2024-08-14,55.00,POSTO SHELL,
s3,2024-08-12,100.50,Mercado,
bad,yesterday,3,,
`

const ledgerCSV = `id,date,amount,description,direction
t1,2024-08-11,29.90,Netflix,expense
t2,2024-07-01,42,Rent,expense
t3,2024-08-15,55.00,Fuel,expense
`

type fixture struct {
	dir      string
	config   string
	imported string
	ledger   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:      dir,
		config:   filepath.Join(dir, "config.yaml"),
		imported: filepath.Join(dir, "august.csv"),
		ledger:   filepath.Join(dir, "ledger.csv"),
	}

	cfg := "storage:\n  database_path: " + filepath.Join(dir, "runs.db") + "\n" +
		"observability:\n  logging:\n    level: error\n"
	require.NoError(t, os.WriteFile(f.config, []byte(cfg), 0644))
	require.NoError(t, os.WriteFile(f.imported, []byte(statementCSV), 0644))
	require.NoError(t, os.WriteFile(f.ledger, []byte(ledgerCSV), 0644))
	return f
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand_Text(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	out, err := execute(t, "run", "--config", f.config, "--imported", f.imported, "--ledger", f.ledger)

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out, "Label: august.csv")
	assert.Contains(t, out, "Matched (2)")
	assert.Contains(t, out, "New transactions (1)")
	assert.Contains(t, out, "Missing from statement (1)")
	assert.Contains(t, out, "Rejected (1)")
	assert.Contains(t, out, "imported record 3")
	assert.Contains(t, out, "Summary: Matched=2 New=1 Missing=1 LikelyDuplicates=1 NeedsReview=1")
	assert.Contains(t, out, "Totals: New=100.50")
	assert.Contains(t, out, "Selected for import: s3")
	assert.NotContains(t, out, "Run saved")

	_, statErr := os.Stat(filepath.Join(f.dir, "runs.db"))
	assert.True(t, os.IsNotExist(statErr), "run without --save must not create the database")
}

func TestRunCommand_JSONWithOverrides(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "run", "--config", f.config,
		"--imported", f.imported, "--ledger", f.ledger,
		"--threshold", "60", "--strategy", reconcile.StrategyOptimal, "--format", "json")

	require.NoError(t, err)
	var result service.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 60, result.MatchThreshold)
	assert.Equal(t, reconcile.StrategyOptimal, result.Strategy)
	assert.Equal(t, []string{"s2", "s3"}, result.Selected)
	require.Len(t, result.Partition.Matched, 1)
	assert.Equal(t, "t1", result.Partition.Matched[0].Ledger.ID)
}

func TestRunCommand_SemicolonDecimalComma(t *testing.T) {
	f := newFixture(t)
	statementPath := filepath.Join(f.dir, "extrato.csv")
	require.NoError(t, os.WriteFile(statementPath, []byte("date;amount;description\n11/08/2024;-1.029,90;Netflix\n"), 0644))
	ledger := filepath.Join(f.dir, "lancamentos.csv")
	require.NoError(t, os.WriteFile(ledger, []byte("id;date;amount;description;direction\nt1;2024-08-11;1029,90;Netflix;expense\n"), 0644))

	out, err := execute(t, "run", "--config", f.config, "--imported", statementPath, "--ledger", ledger,
		"--delimiter", ";", "--decimal-comma")

	require.NoError(t, err)
	assert.Contains(t, out, "Matched (1)")
	assert.Contains(t, out, "1029.90")
	assert.Contains(t, out, "LikelyDuplicates=1")
	assert.Contains(t, out, "Selected for import: none")
}

func TestRunCommand_UnknownHeaders(t *testing.T) {
	f := newFixture(t)
	statementPath := filepath.Join(f.dir, "extrato.csv")
	require.NoError(t, os.WriteFile(statementPath, []byte("data,valor\n11/08/2024,10\n"), 0644))

	out, err := execute(t, "run", "--config", f.config, "--imported", statementPath, "--ledger", f.ledger)

	assert.ErrorIs(t, err, statement.ErrMissingColumn)
	assert.Empty(t, out)
}

func TestRunCommand_InvalidFlags(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing ledger", []string{"run", "--config", f.config, "--imported", f.imported}},
		{"unknown format", []string{"run", "--config", f.config, "--imported", f.imported, "--ledger", f.ledger, "--format", "xml"}},
		{"long delimiter", []string{"run", "--config", f.config, "--imported", f.imported, "--ledger", f.ledger, "--delimiter", ";;"}},
		{"unknown strategy", []string{"run", "--config", f.config, "--imported", f.imported, "--ledger", f.ledger, "--strategy", "random"}},
		{"threshold out of range", []string{"run", "--config", f.config, "--imported", f.imported, "--ledger", f.ledger, "--threshold", "500"}},
		{"missing file", []string{"run", "--config", f.config, "--imported", filepath.Join(f.dir, "nope.csv"), "--ledger", f.ledger}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRunCommand_InvalidConfig(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.config, []byte("reconcile:\n  strategy: random\n"), 0644))

	_, err := execute(t, "run", "--config", f.config, "--imported", f.imported, "--ledger", f.ledger)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestSaveListFinalize(t *testing.T) {
	f := newFixture(t)

	// Empty history
	out, err := execute(t, "runs", "--config", f.config)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")

	// Save a run
	out, err = execute(t, "run", "--config", f.config, "--imported", f.imported, "--ledger", f.ledger, "--save", "--format", "json")
	require.NoError(t, err)
	var result service.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.True(t, result.Saved)

	// Listed
	out, err = execute(t, "runs", "--config", f.config, "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, result.RunID)
	assert.Contains(t, out, storage.RunStatusPartitioned)
	assert.Contains(t, out, "august.csv")

	// Unknown toggle leaves the run open
	_, err = execute(t, "finalize", result.RunID, "--config", f.config, "--toggle", "t2")
	var selErr *reconcile.InvalidSelectionError
	require.ErrorAs(t, err, &selErr)

	// Confirm with the weak match added
	out, err = execute(t, "finalize", result.RunID, "--config", f.config, "--toggle", "s2")
	require.NoError(t, err)
	assert.Contains(t, out, "confirmed: 2 transaction(s) to import")
	assert.Contains(t, out, "s2 s3")

	// Confirmed runs are immutable
	_, err = execute(t, "finalize", result.RunID, "--config", f.config)
	assert.ErrorIs(t, err, storage.ErrRunConfirmed)

	out, err = execute(t, "runs", "--config", f.config)
	require.NoError(t, err)
	assert.Contains(t, out, storage.RunStatusConfirmed)
}

func TestFinalizeCommand_RequiresRunID(t *testing.T) {
	f := newFixture(t)

	_, err := execute(t, "finalize", "--config", f.config)

	assert.Error(t, err)
}

func TestRunCommand_ThresholdHelpShowsScoreRange(t *testing.T) {
	// Arrange
	cmd := newRunCmd(&app{})

	// Act
	flag := cmd.Flags().Lookup("threshold")

	// Assert
	require.NotNil(t, flag)
	assert.Contains(t, flag.Usage, "(0-110 ")
}
