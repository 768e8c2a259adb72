package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budgetbook/budgetbook/internal/commands"
	"github.com/budgetbook/budgetbook/internal/config"
	"github.com/budgetbook/budgetbook/internal/export"
	"github.com/budgetbook/budgetbook/internal/importlog"
)

const coffeeCSV = "Date,Description,Amount\n01/02/2024,Coffee Shop,4.50\n,,\n"

func runBudgetbook(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := commands.NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, contents string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func initWorkspace(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	_, err := runBudgetbook(t, "init", dir)
	require.NoError(t, err)
	return dir, filepath.Join(dir, config.FileName)
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := runBudgetbook(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized budgetbook workspace")

	for _, d := range []string{"import", filepath.Join("import", "processed"), "exports", "logs"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir())
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestInit_RefusesOverwrite(t *testing.T) {
	dir, _ := initWorkspace(t)

	_, err := runBudgetbook(t, "init", dir)
	assert.ErrorContains(t, err, "already exists")

	_, err = runBudgetbook(t, "init", dir, "--force")
	assert.NoError(t, err)
}

func TestParse_Table(t *testing.T) {
	_, cfgPath := initWorkspace(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "june.csv"), coffeeCSV)

	out, err := runBudgetbook(t, "parse", path, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Coffee Shop")
	assert.Contains(t, out, "2024-01-02")
	assert.Contains(t, out, "4.50")
	assert.Contains(t, out, "june.csv: 1 of 2 rows imported (profile amex)")
}

func TestParse_JSONWithCategories(t *testing.T) {
	_, cfgPath := initWorkspace(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "june.csv"),
		"Date,Description,Amount,Category\n01/02/2024,Joe's Restaurant,$12.00,\n01/03/2024,AMAZON MKTPL,5,Gifts\n")

	out, err := runBudgetbook(t, "parse", path, "--config", cfgPath, "--format", "json")
	require.NoError(t, err)

	var got struct {
		Success      bool `json:"success"`
		ValidRows    int  `json:"valid_rows"`
		Transactions []struct {
			Date     string `json:"date"`
			Amount   string `json:"amount"`
			Category string `json:"category"`
		} `json:"transactions"`
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Success)
	assert.Equal(t, 2, got.ValidRows)
	require.Len(t, got.Transactions, 2)
	assert.Equal(t, "2024-01-02", got.Transactions[0].Date)
	assert.Equal(t, "12.00", got.Transactions[0].Amount)
	assert.Equal(t, "Food", got.Transactions[0].Category)
	assert.Equal(t, "Gifts", got.Transactions[1].Category)
	assert.Empty(t, got.Warnings)
}

func TestParse_CSVAndOut(t *testing.T) {
	_, cfgPath := initWorkspace(t)
	tmp := t.TempDir()
	path := writeFile(t, filepath.Join(tmp, "june.csv"), coffeeCSV)
	outPath := filepath.Join(tmp, "out", "june-export.csv")

	out, err := runBudgetbook(t, "parse", path, "--config", cfgPath, "--format", "csv", "--out", outPath)
	require.NoError(t, err)
	assert.Equal(t, export.Header+"\n2024-01-02,Coffee Shop,4.50,,Imported from june.csv\n", out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}

func TestParse_FormatFromConfig(t *testing.T) {
	dir, cfgPath := initWorkspace(t)
	cfg := config.Default()
	cfg.Output.Format = config.FormatCSV
	require.NoError(t, config.Save(cfgPath, cfg))
	path := writeFile(t, filepath.Join(dir, "june.csv"), coffeeCSV)

	out, err := runBudgetbook(t, "parse", path, "--config", cfgPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, export.Header))
}

func TestParse_Failure(t *testing.T) {
	_, cfgPath := initWorkspace(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "odd.csv"), "Foo,Bar\n1,2\n")

	out, err := runBudgetbook(t, "parse", path, "--config", cfgPath)
	assert.ErrorContains(t, err, "no transactions imported from odd.csv")
	assert.Contains(t, out, "warning: Could not find required columns")
	assert.Contains(t, out, "Found headers: Foo, Bar")
}

func TestParse_BadFormatFlag(t *testing.T) {
	_, cfgPath := initWorkspace(t)
	path := writeFile(t, filepath.Join(t.TempDir(), "june.csv"), coffeeCSV)

	_, err := runBudgetbook(t, "parse", path, "--config", cfgPath, "--format", "xml")
	assert.ErrorContains(t, err, "output.format")
}

func TestImport(t *testing.T) {
	dir, cfgPath := initWorkspace(t)
	writeFile(t, filepath.Join(dir, "import", "june.csv"), coffeeCSV)
	writeFile(t, filepath.Join(dir, "import", "july.csv"),
		"Transaction Date,Post Date,Description,Category,Type,Amount\n07/01/2024,07/02/2024,SHELL GAS,,Sale,-40.00\n")
	writeFile(t, filepath.Join(dir, "import", "broken.csv"), "Foo,Bar\n1,2\n")
	writeFile(t, filepath.Join(dir, "import", "notes.txt"), "not a statement")

	out, err := runBudgetbook(t, "import", dir, "--config", cfgPath, "--archive", "--workers", "2")
	assert.ErrorContains(t, err, "1 of 3 statements could not be imported")
	assert.Contains(t, out, "june.csv: 1 of 2 rows imported (profile amex)")
	assert.Contains(t, out, "july.csv: 1 of 1 rows imported (profile chase)")
	assert.Contains(t, out, "warning: Could not find required columns")

	f, err := os.Open(filepath.Join(dir, "exports", "july_csv.csv"))
	require.NoError(t, err)
	defer f.Close()
	txns, err := export.ReadCandidates(f)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "Sale", txns[0].Category)
	assert.Equal(t, "40.00", txns[0].Amount.StringFixed(2))
	assert.FileExists(t, filepath.Join(dir, "exports", "june_csv.csv"))
	assert.NoFileExists(t, filepath.Join(dir, "exports", "broken_csv.csv"))

	assert.FileExists(t, filepath.Join(dir, "import", "processed", "june.csv"))
	assert.FileExists(t, filepath.Join(dir, "import", "processed", "july.csv"))
	assert.FileExists(t, filepath.Join(dir, "import", "broken.csv"))
	assert.FileExists(t, filepath.Join(dir, "import", "notes.txt"))

	entries, err := importlog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	byFile := map[string]importlog.Entry{}
	for _, e := range entries {
		byFile[e.File] = e
	}
	assert.True(t, byFile["june.csv"].Success)
	assert.Equal(t, 2, byFile["june.csv"].TotalRows)
	assert.False(t, byFile["broken.csv"].Success)
	assert.NotEmpty(t, byFile["broken.csv"].Warnings)
}

func TestImport_ExportFailureStillLogged(t *testing.T) {
	dir, cfgPath := initWorkspace(t)
	writeFile(t, filepath.Join(dir, "import", "june.csv"), coffeeCSV)
	writeFile(t, filepath.Join(dir, "import", "july.csv"), coffeeCSV)
	// A directory in the way makes the june export fail.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "exports", "june_csv.csv"), 0o755))

	_, err := runBudgetbook(t, "import", dir, "--config", cfgPath, "--archive")
	assert.ErrorContains(t, err, "exporting june.csv")

	assert.FileExists(t, filepath.Join(dir, "exports", "july_csv.csv"))
	assert.FileExists(t, filepath.Join(dir, "import", "processed", "july.csv"))
	assert.FileExists(t, filepath.Join(dir, "import", "june.csv"))

	entries, err := importlog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	files := []string{entries[0].File, entries[1].File}
	assert.ElementsMatch(t, []string{"june.csv", "july.csv"}, files)
}

func TestImport_WithoutArchive(t *testing.T) {
	dir, cfgPath := initWorkspace(t)
	writeFile(t, filepath.Join(dir, "import", "june.csv"), coffeeCSV)

	_, err := runBudgetbook(t, "import", dir, "--config", cfgPath)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "import", "june.csv"))
	assert.FileExists(t, filepath.Join(dir, "exports", "june_csv.csv"))
}

func TestImport_Empty(t *testing.T) {
	dir, cfgPath := initWorkspace(t)

	out, err := runBudgetbook(t, "import", dir, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No statements to import")

	entries, err := importlog.Read(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProfiles(t *testing.T) {
	out, err := runBudgetbook(t, "profiles")
	require.NoError(t, err)
	assert.Contains(t, out, "chase\n")
	assert.Contains(t, out, "transaction date, post date")
	assert.Contains(t, out, "Supported files: .csv, .xls, .xlsx")
}

func TestVersion(t *testing.T) {
	out, err := runBudgetbook(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none")
}
