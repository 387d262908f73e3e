package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"crmbridge/internal/infrastructure"
)

func writeFixtures(t *testing.T, dir string) (workbook, registry string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), "明細データ"))
	rows := [][]interface{}{
		{"No", "案件名", "活動先", "活動者", "方法", "活動日"},
		{"1", "訪問", "桜商事株式会社", "田中", "対面", "2025/03/10"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("明細データ", cell, &row))
	}
	workbook = filepath.Join(dir, "activity.xlsx")
	require.NoError(t, f.SaveAs(workbook))

	content := "取引先ID(必須),取引先名(必須)\nA001,桜商事株式会社\n"
	encoded, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), content)
	require.NoError(t, err)
	registry = filepath.Join(dir, "customers.csv")
	require.NoError(t, os.WriteFile(registry, []byte(encoded), 0644))

	return workbook, registry
}

func TestRunSuccess(t *testing.T) {
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	dir := t.TempDir()
	workbook, registry := writeFixtures(t, dir)
	output := filepath.Join(dir, "import.csv")

	t.Setenv("CRMBRIDGE_PATHS_WORKBOOK_FILE", workbook)
	t.Setenv("CRMBRIDGE_PATHS_REGISTRY_FILE", registry)
	t.Setenv("CRMBRIDGE_PATHS_OUTPUT_FILE", output)
	t.Setenv("CRMBRIDGE_PATHS_ARTIFACT_FILE", filepath.Join(dir, "matched.xlsx"))
	t.Setenv("CRMBRIDGE_PATHS_LOGS_DIR", filepath.Join(dir, "logs"))
	t.Setenv("CRMBRIDGE_LOGGING_OUTPUT", "stdout")

	assert.Equal(t, 0, run())

	_, err := os.Stat(output)
	assert.NoError(t, err)
}

func TestRunMissingInput(t *testing.T) {
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	dir := t.TempDir()
	t.Setenv("CRMBRIDGE_PATHS_WORKBOOK_FILE", filepath.Join(dir, "absent.xlsx"))
	t.Setenv("CRMBRIDGE_PATHS_REGISTRY_FILE", filepath.Join(dir, "absent.csv"))
	t.Setenv("CRMBRIDGE_PATHS_OUTPUT_FILE", filepath.Join(dir, "import.csv"))
	t.Setenv("CRMBRIDGE_PATHS_LOGS_DIR", filepath.Join(dir, "logs"))
	t.Setenv("CRMBRIDGE_LOGGING_OUTPUT", "stdout")

	assert.Equal(t, 1, run())
}
