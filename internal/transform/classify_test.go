package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"crmbridge/internal/config"
	"crmbridge/pkg/contracts/domain"
)

func TestClassify(t *testing.T) {
	svc := testService()

	tests := []struct {
		name   string
		method string
		kind   string
		text   string
		want   domain.ActionType
	}{
		{"face to face method wins", "対面", "", "", domain.ActionMeeting},
		{"face to face type wins", "", "対面", "", domain.ActionMeeting},
		{"face to face trims surrounding space", " 対面 ", "電話", "", domain.ActionMeeting},
		{"face to face must match exactly", "対面以外", "", "", domain.ActionExternalTask},
		{"type containing phone", "", "電話発信", "", domain.ActionPhone},
		{"type containing mail", "", "メール対応", "", domain.ActionEmail},
		{"type containing meeting word", "", "定例会議", "", domain.ActionInternalTask},
		{"type containing mtg any case", "", "週次MTG", "", domain.ActionInternalTask},
		{"no signals defaults to external task", "", "", "特になし", domain.ActionExternalTask},
		{"mail keyword overrides phone baseline", "", "電話", "見積書を送付しました", domain.ActionEmail},
		{"mail beats phone keyword in the same text", "", "", "電話のあと資料を送信", domain.ActionEmail},
		{"phone keyword", "", "", "先方へ折返を実施", domain.ActionPhone},
		{"external task keyword", "", "", "現地で設置作業", domain.ActionExternalTask},
		{"internal task keyword", "", "", "見積の資料作成", domain.ActionInternalTask},
		{"latin keyword matches lowercased", "", "", "報告書をCCで共有", domain.ActionEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.Classify(tt.method, tt.kind, tt.text))
		})
	}
}

func TestClassifyCustomVocabulary(t *testing.T) {
	vocab := config.DefaultVocabulary()
	vocab.PhoneWords = []string{"かけ直し"}
	svc := NewService(vocab, discard())

	assert.Equal(t, domain.ActionPhone, svc.Classify("", "", "明日かけ直しの予定"))
	assert.Equal(t, domain.ActionExternalTask, svc.Classify("", "", "先方へ折返を実施"))
}
