package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"crmbridge/pkg/contracts/domain"
)

// DefaultSheetHint is the sheet the activity workbook is expected to
// carry its detail rows on.
const DefaultSheetHint = "明細データ"

// DefaultArtifactSheet is the sheet name the matched-activity artifact
// workbook is written under.
const DefaultArtifactSheet = "マッチ結果"

// Vocabulary collects the domain-specific constant tables: registry
// header aliases, classification keyword sets, administrative heading
// tokens, and the output template schema. They are data, not logic, so
// substitute vocabularies can be loaded from YAML without a code change.
type Vocabulary struct {
	NameAliases  []string `yaml:"name_aliases" validate:"min=1,dive,required"`
	IDAliases    []string `yaml:"id_aliases"`
	TierAliases  []string `yaml:"tier_aliases"`
	OwnerAliases []string `yaml:"owner_aliases"`

	HeaderKeywords []string `yaml:"header_keywords" validate:"min=1"`

	EmailWords        []string `yaml:"email_words"`
	PhoneWords        []string `yaml:"phone_words"`
	ExternalTaskWords []string `yaml:"external_task_words"`
	InternalTaskWords []string `yaml:"internal_task_words"`

	AdminHeadings []string `yaml:"admin_headings"`

	TemplateSchema []string `yaml:"template_schema" validate:"min=1,dive,required"`
}

// DefaultVocabulary returns the tables the production sheets use.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		NameAliases: []string{
			"取引先名(必須)",
			"取引先名",
			"顧客名",
			"会社名",
			"企業名",
		},
		IDAliases: []string{
			"取引先ID(必須)",
			"取引先ID",
			"顧客ID",
			"会社ID",
			"顧客コード",
			"取引先コード",
		},
		TierAliases: []string{
			"顧客区分（管理番号:19103）",
			"顧客区分（管理番号：19103）",
			"顧客区分",
			"顧客ランク",
			"区分",
		},
		OwnerAliases: []string{
			"MA部支援担当（管理番号:19258）",
			"MA部支援担当（管理番号：19258）",
			"MA部支援担当",
			"支援担当者",
			"担当者",
		},
		HeaderKeywords: []string{
			"no", "案件", "番号", "活動", "活動先", "案件名", "活動日",
			"活動者", "組織", "行動", "種別", "実施", "内容",
			"id", "name", "date", "time",
		},
		EmailWords: []string{
			"送付", "返信", "メール", "送信", "添付", "cc", "エビデンス", "提出",
		},
		PhoneWords: []string{
			"架電", "折返", "通話", "連絡", "コール", "電話",
		},
		ExternalTaskWords: []string{
			"現調", "立会", "設置", "納品", "リモート設定", "現地", "フィールド", "調整",
		},
		InternalTaskWords: []string{
			"見積", "資料作成", "社内", "mtg", "整理", "手配", "稟議", "準備",
		},
		AdminHeadings: []string{
			"記入者", "訪問日時", "日時", "提案機種", "訪問者",
			"販売店", "訪問相手", "顧客情報", "活動ステージ",
		},
		TemplateSchema: domain.TemplateSchema(),
	}
}

// LoadVocabulary reads a substitute vocabulary from a YAML file. Lists
// absent from the file keep their defaults, so an override file only
// needs the tables it changes.
func LoadVocabulary(path string) (Vocabulary, error) {
	vocab := DefaultVocabulary()

	data, err := os.ReadFile(path)
	if err != nil {
		return vocab, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var loaded Vocabulary
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return vocab, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}

	vocab.merge(loaded)
	if err := vocab.Validate(); err != nil {
		return vocab, fmt.Errorf("vocabulary validation failed: %w", err)
	}
	return vocab, nil
}

func (v *Vocabulary) merge(o Vocabulary) {
	if len(o.NameAliases) > 0 {
		v.NameAliases = o.NameAliases
	}
	if len(o.IDAliases) > 0 {
		v.IDAliases = o.IDAliases
	}
	if len(o.TierAliases) > 0 {
		v.TierAliases = o.TierAliases
	}
	if len(o.OwnerAliases) > 0 {
		v.OwnerAliases = o.OwnerAliases
	}
	if len(o.HeaderKeywords) > 0 {
		v.HeaderKeywords = o.HeaderKeywords
	}
	if len(o.EmailWords) > 0 {
		v.EmailWords = o.EmailWords
	}
	if len(o.PhoneWords) > 0 {
		v.PhoneWords = o.PhoneWords
	}
	if len(o.ExternalTaskWords) > 0 {
		v.ExternalTaskWords = o.ExternalTaskWords
	}
	if len(o.InternalTaskWords) > 0 {
		v.InternalTaskWords = o.InternalTaskWords
	}
	if len(o.AdminHeadings) > 0 {
		v.AdminHeadings = o.AdminHeadings
	}
	if len(o.TemplateSchema) > 0 {
		v.TemplateSchema = o.TemplateSchema
	}
}

// Validate checks the vocabulary is usable.
func (v Vocabulary) Validate() error {
	return validate.Struct(v)
}
