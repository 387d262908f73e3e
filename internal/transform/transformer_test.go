package transform

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmbridge/internal/config"
	"crmbridge/pkg/contracts/domain"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testService returns a transformer with a pinned clock so date
// defaults are stable regardless of when the tests run.
func testService() *Service {
	svc := NewService(config.DefaultVocabulary(), discard())
	svc.clock = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func testRegistry() *domain.Registry {
	return &domain.Registry{
		Columns: []string{"取引先ID(必須)", "取引先名(必須)", "顧客区分", "MA部支援担当"},
		Rows: [][]string{
			{"A001", "桜商事株式会社", "既存", "山田"},
			{"A002", "高橋物産", "新規", ""},
		},
		NameCol:  1,
		IDCol:    0,
		TierCol:  2,
		OwnerCol: 3,
	}
}

func matchedTable(rows [][]string) *domain.Table {
	columns := []string{
		"No", "活動先", "方法", "活動種別", "活動内容", "日付",
		domain.ColMatchedName, domain.ColMatchedID, domain.ColMatchedTier,
	}
	return domain.NewTable(columns, rows)
}

func TestTransformBuildsImportRows(t *testing.T) {
	svc := testService()
	reg := testRegistry()

	matched := matchedTable([][]string{
		{"1", "桜商事への訪問", "対面", "訪問", "■活動内容\n3月10日 14:00-15:30 現地で打合せ", "2025-06-01", "桜商事株式会社", "A001", "既存"},
		{"2", "高橋物産フォロー", "", "電話", "折返の連絡を実施", "2025-06-02", "高橋物産", "A002", "新規"},
		{"3", "新規先対応", "", "メール対応", "■活動内容\n見積書を送付", "2025/6/3", "未登録商会", "Z999", ""},
	})

	out := svc.Transform(context.Background(), matched, reg)

	require.Equal(t, domain.TemplateSchema(), out.Columns)
	require.Equal(t, 3, out.Len())

	assert.Equal(t, []string{
		"A001", "面談", "2025-03-10", "14:00", "2025-03-10", "15:30",
		"山田", "", "", "3月10日 14:00-15:30 現地で打合せ", "完了", "",
	}, out.Rows[0])

	// Registered customer with a blank owner attribute.
	assert.Equal(t, []string{
		"A002", "電話", "2025-06-02", "10:00", "2025-06-02", "11:00",
		"担当者未設定", "", "", "折返の連絡を実施", "完了", "",
	}, out.Rows[1])

	// Id absent from the registry index.
	assert.Equal(t, []string{
		"Z999", "メール", "2025-06-03", "10:00", "2025-06-03", "11:00",
		"担当者未設定", "", "", "見積書を送付", "完了", "",
	}, out.Rows[2])
}

func TestTransformPositionalColumns(t *testing.T) {
	svc := testService()
	reg := testRegistry()

	columns := make([]string, 13)
	for i := range columns {
		columns[i] = "列" + string(rune('A'+i))
	}
	matched := domain.NewTable(columns, [][]string{
		{"r1", "x", "y", "z", "対面", "a", "b", "2025-06-01", "c", "d", "", "■活動内容\n現地訪問の記録", "m"},
	})
	matched.AppendColumn(domain.ColMatchedID, []string{"A001"})

	out := svc.Transform(context.Background(), matched, reg)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, []string{
		"A001", "面談", "2025-06-01", "10:00", "2025-06-01", "11:00",
		"山田", "", "", "現地訪問の記録", "完了", "",
	}, out.Rows[0])
}

func TestTransformMissingIDColumn(t *testing.T) {
	svc := testService()
	reg := testRegistry()

	matched := domain.NewTable(
		[]string{"方法", "活動内容", "日付"},
		[][]string{{"対面", "記録本文", "2025-06-01"}},
	)

	out := svc.Transform(context.Background(), matched, reg)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, "", out.Cell(0, 0))
	assert.Equal(t, "面談", out.Cell(0, 1))
	assert.Equal(t, "担当者未設定", out.Cell(0, 6))
}

func TestTransformCustomSchema(t *testing.T) {
	vocab := config.DefaultVocabulary()
	vocab.TemplateSchema = []string{"取引先ID(必須)", "メモ", "独自列"}
	svc := NewService(vocab, discard())

	matched := domain.NewTable(
		[]string{"方法", "活動内容", "日付", domain.ColMatchedID},
		[][]string{{"", "記録本文", "2025-06-01", "A001"}},
	)

	out := svc.Transform(context.Background(), matched, testRegistry())

	require.Equal(t, []string{"取引先ID(必須)", "メモ", "独自列"}, out.Columns)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, []string{"A001", "記録本文", ""}, out.Rows[0])
}

func TestTransformEmptyInput(t *testing.T) {
	svc := testService()

	out := svc.Transform(context.Background(), matchedTable(nil), testRegistry())

	assert.Equal(t, domain.TemplateSchema(), out.Columns)
	assert.Equal(t, 0, out.Len())
}

func TestResolveOwner(t *testing.T) {
	reg := testRegistry()
	idIndex := reg.IDIndex()

	assert.Equal(t, "山田", resolveOwner("A001", reg, idIndex))
	assert.Equal(t, "担当者未設定", resolveOwner("A002", reg, idIndex))
	assert.Equal(t, "担当者未設定", resolveOwner("Z999", reg, idIndex))
	assert.Equal(t, "担当者未設定", resolveOwner("", reg, idIndex))

	noOwner := testRegistry()
	noOwner.OwnerCol = -1
	assert.Equal(t, "担当者未設定", resolveOwner("A001", noOwner, noOwner.IDIndex()))
}
