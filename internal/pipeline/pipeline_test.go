package pipeline

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"crmbridge/internal/config"
	apperrors "crmbridge/internal/errors"
	"crmbridge/internal/infrastructure"
	"crmbridge/internal/shared/testutil"
	"crmbridge/pkg/contracts/events"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noopProviders(t *testing.T) *infrastructure.OTelProviders {
	t.Helper()
	providers, err := infrastructure.InitializeOTel(config.ObservabilityConfig{Enabled: false}, discard())
	require.NoError(t, err)
	return providers
}

// writeActivityWorkbook builds the canonical activity fixture: a header
// row the recovery pass accepts, then one row naming a registered
// customer verbatim, one with a legal-suffix variant, one naming an
// unregistered company.
func writeActivityWorkbook(t *testing.T, dir string) string {
	t.Helper()

	header := []interface{}{
		"No", "案件名", "活動先", "活動者", "方法", "活動日",
		"組織", "拠点", "結果", "ステージ", "活動種別", "活動内容", "メモ",
	}
	rows := [][]interface{}{
		header,
		{"1", "見積対応", "桜商事株式会社", "田中", "対面", "2025/03/10",
			"", "", "", "", "訪問", "■活動内容\n2025/03/10 14:00～15:30 現地で打合せ", ""},
		{"2", "メール連絡", "（株）桜商事 大阪支店", "鈴木", "", "2025/03/11",
			"", "", "", "", "", "見積書をメールで送付しました", ""},
		{"3", "納品調整", "未知商会", "佐藤", "", "2025/03/12",
			"", "", "", "", "", "納品日の調整", ""},
	}

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), "明細データ"))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("明細データ", cell, &row))
	}

	path := filepath.Join(dir, "activity.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func writeRegistryCP932(t *testing.T, dir, content string) string {
	t.Helper()
	encoded, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), content)
	require.NoError(t, err)
	path := filepath.Join(dir, "customers.csv")
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0644))
	return path
}

func testConfig(workbook, registryFile, dir string) (*config.Config, *config.Paths) {
	cfg := config.Default()
	cfg.Paths.WorkbookFile = workbook
	cfg.Paths.RegistryFile = registryFile
	paths := &config.Paths{
		WorkbookFile: workbook,
		RegistryFile: registryFile,
		OutputFile:   filepath.Join(dir, "import.csv"),
		ArtifactFile: filepath.Join(dir, "matched.xlsx"),
		LogsDir:      filepath.Join(dir, "logs"),
	}
	return cfg, paths
}

func readOutputCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(decoded))).ReadAll()
	require.NoError(t, err)
	return records
}

func TestPipelineEndToEnd(t *testing.T) {
	dir := t.TempDir()
	workbook := writeActivityWorkbook(t, dir)
	registryFile := writeRegistryCP932(t, dir,
		"取引先ID(必須),取引先名(必須),顧客区分（管理番号:19103）,MA部支援担当（管理番号:19258）\n"+
			"A001,桜商事株式会社,既存,山田\n")

	cfg, paths := testConfig(workbook, registryFile, dir)
	cfg.Pipeline.ArtifactSheet = "照合結果"

	var mu sync.Mutex
	var published []events.PipelineEvent
	sink := events.EventSinkFunc(func(e events.PipelineEvent) {
		mu.Lock()
		published = append(published, e)
		mu.Unlock()
	})

	logger, logs := testutil.NewTestLogger(t)
	p, err := New(cfg, paths, noopProviders(t), sink, logger)
	require.NoError(t, err)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	// The unmatched row's exclusion is narrated, not silent.
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "unmatched activity rows dropped")
	testutil.AssertLogContains(t, logs, slog.LevelInfo, "pipeline run complete")
	testutil.AssertLogAttr(t, logs, "component", "matching")
	testutil.AssertLogAttr(t, logs, "component", "pipeline")
	testutil.AssertLogAttr(t, logs, "stage", events.StageExport)

	assert.Equal(t, "明細データ", summary.SheetName)
	assert.Equal(t, 3, summary.RowsIngested)
	assert.Equal(t, 2, summary.RowsMatched)
	assert.Equal(t, 1, summary.RowsUnmatched)
	assert.Equal(t, 2, summary.RowsWritten)
	assert.NotEmpty(t, summary.RunID)
	require.Len(t, summary.Stages, 6)
	for _, s := range summary.Stages {
		assert.Equal(t, string(StepStatusCompleted), s.Status, s.Stage)
	}

	records := readOutputCSV(t, paths.OutputFile)
	require.Len(t, records, 3)
	assert.Equal(t, "取引先ID(必須)", records[0][0])

	// Both matched rows carry the registry id and owner; the unmatched
	// row is gone entirely.
	for _, rec := range records[1:] {
		assert.Equal(t, "A001", rec[0])
		assert.Equal(t, "山田", rec[6])
		assert.Equal(t, "完了", rec[10])
	}
	assert.Equal(t, "面談", records[1][1])
	assert.Equal(t, "2025-03-10", records[1][2])
	assert.Equal(t, "14:00", records[1][3])
	assert.Equal(t, "15:30", records[1][5])
	assert.Equal(t, "メール", records[2][1])

	// The artifact carries the tier annotation, on the configured sheet.
	f, err := excelize.OpenFile(paths.ArtifactFile)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("照合結果")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	tierCol := -1
	for i, label := range rows[0] {
		if strings.HasPrefix(label, "顧客区分") {
			tierCol = i
		}
	}
	require.GreaterOrEqual(t, tierCol, 0)
	assert.Equal(t, "既存", rows[1][tierCol])

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, published)
	stages := make(map[string]bool)
	for _, e := range published {
		stages[e.Stage] = true
		assert.Equal(t, summary.RunID, e.RunID)
	}
	assert.True(t, stages[events.StageIngest])
	assert.True(t, stages[events.StageMatch])
	assert.True(t, stages[events.StageExport])
}

func TestPipelineArtifactDisabled(t *testing.T) {
	dir := t.TempDir()
	workbook := writeActivityWorkbook(t, dir)
	registryFile := writeRegistryCP932(t, dir,
		"取引先名(必須)\n桜商事株式会社\n")

	cfg, paths := testConfig(workbook, registryFile, dir)
	cfg.Pipeline.ArtifactEnabled = false

	p, err := New(cfg, paths, noopProviders(t), nil, discard())
	require.NoError(t, err)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	var artifactStatus string
	for _, s := range summary.Stages {
		if s.Stage == events.StageArtifact {
			artifactStatus = s.Status
		}
	}
	assert.Equal(t, string(StepStatusSkipped), artifactStatus)

	_, statErr := os.Stat(paths.ArtifactFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPipelineRegistryColumnFatal(t *testing.T) {
	dir := t.TempDir()
	workbook := writeActivityWorkbook(t, dir)
	registryFile := writeRegistryCP932(t, dir, "何か,別の列\nx,y\n")

	cfg, paths := testConfig(workbook, registryFile, dir)

	p, err := New(cfg, paths, noopProviders(t), nil, discard())
	require.NoError(t, err)

	summary, err := p.Run(context.Background())
	assert.Nil(t, summary)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRegistryColumn)

	// Nothing downstream ran.
	_, statErr := os.Stat(paths.OutputFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPipelineCancelledContext(t *testing.T) {
	dir := t.TempDir()
	workbook := writeActivityWorkbook(t, dir)
	registryFile := writeRegistryCP932(t, dir, "取引先名(必須)\n桜商事株式会社\n")

	cfg, paths := testConfig(workbook, registryFile, dir)
	p, err := New(cfg, paths, noopProviders(t), nil, discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipelineRunIsolation(t *testing.T) {
	// Two concurrent runs over the same input bytes must neither
	// interfere nor diverge: inputs are read-only and each run is a pure
	// function of them.
	dir := t.TempDir()
	workbook := writeActivityWorkbook(t, dir)
	registryFile := writeRegistryCP932(t, dir,
		"取引先ID(必須),取引先名(必須)\nA001,桜商事株式会社\n")

	providers := []*infrastructure.OTelProviders{noopProviders(t), noopProviders(t)}

	outputs := make([]string, 2)
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		i := i
		g.Go(func() error {
			runDir := filepath.Join(dir, "run", string(rune('a'+i)))
			cfg, paths := testConfig(workbook, registryFile, runDir)
			cfg.Pipeline.ArtifactEnabled = false
			p, err := New(cfg, paths, providers[i], nil, discard())
			if err != nil {
				return err
			}
			if _, err := p.Run(context.Background()); err != nil {
				return err
			}
			outputs[i] = paths.OutputFile
			return nil
		})
	}
	require.NoError(t, g.Wait())

	first, err := os.ReadFile(outputs[0])
	require.NoError(t, err)
	second, err := os.ReadFile(outputs[1])
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
