package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBody(t *testing.T) {
	svc := testService()

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "marker splits off the preamble",
			text: "■記入者：山田\n■活動内容\n本日訪問しました。\n次回は見積持参。",
			want: "本日訪問しました。\n次回は見積持参。",
		},
		{
			name: "marker mid line",
			text: "前置きです■活動内容当日の要点",
			want: "当日の要点",
		},
		{
			name: "no marker keeps the whole text",
			text: "訪問の記録です",
			want: "訪問の記録です",
		},
		{
			name: "administrative heading lines dropped",
			text: "■訪問日時：\n3月10日に訪問\n■記入者\nメモ本文",
			want: "3月10日に訪問\nメモ本文",
		},
		{
			name: "heading with trailing content survives",
			text: "■記入者：山田太郎\n活動メモ",
			want: "■記入者：山田太郎\n活動メモ",
		},
		{
			name: "leading punctuation stripped",
			text: "■活動内容\n：、結果は良好",
			want: "結果は良好",
		},
		{
			name: "blank lines dropped",
			text: "■活動内容\n\n  \n内容あり\n\n",
			want: "内容あり",
		},
		{
			name: "line endings folded and artifacts removed",
			text: "結果A_x000D_\r\n結果B\rその後",
			want: "結果A\n結果B\nその後",
		},
		{
			name: "unrepresentable runes become question marks",
			text: "結果\U0001F44D良好",
			want: "結果?良好",
		},
		{
			name: "empty input yields the placeholder",
			text: "",
			want: "\"内容不明\"",
		},
		{
			name: "marker with nothing after yields the placeholder",
			text: "■活動内容",
			want: "\"内容不明\"",
		},
		{
			name: "only headings yields the placeholder",
			text: "■訪問日時：\n■記入者",
			want: "\"内容不明\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.ExtractBody(tt.text))
		})
	}
}

func TestExtractBodyCustomHeadings(t *testing.T) {
	svc := testService()

	// The default heading set does not know 自由記入欄, so the line stays.
	kept := svc.ExtractBody("■自由記入欄\n内容です")
	assert.Equal(t, "■自由記入欄\n内容です", kept)

	vocab := svc.vocab
	vocab.AdminHeadings = append([]string{"自由記入欄"}, vocab.AdminHeadings...)
	custom := NewService(vocab, discard())
	assert.Equal(t, "内容です", custom.ExtractBody("■自由記入欄\n内容です"))
}
