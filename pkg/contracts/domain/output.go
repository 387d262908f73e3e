package domain

// Field names of the CRM action-import schema. The output file carries
// exactly these twelve columns in this order; unknown fields stay empty
// so the schema, not the input, drives the output shape.
const (
	FieldAccountID     = "取引先ID(必須)"
	FieldActionType    = "アクション種別(必須)"
	FieldStartDate     = "開始日(必須)"
	FieldStartTime     = "開始時間(必須)"
	FieldEndDate       = "終了日(必須)"
	FieldEndTime       = "終了時間(必須)"
	FieldPrimaryOwner  = "主担当者(必須)"
	FieldOtherOwners   = "他の担当者"
	FieldAdvanceMemo   = "事前メモ"
	FieldResult        = "実施結果"
	FieldStatus        = "ステータス(必須)"
	FieldActionContact = "アクションコンタクト(コンタクトID)"
)

// TemplateSchema returns the default import schema in output order.
func TemplateSchema() []string {
	return []string{
		FieldAccountID,
		FieldActionType,
		FieldStartDate,
		FieldStartTime,
		FieldEndDate,
		FieldEndTime,
		FieldPrimaryOwner,
		FieldOtherOwners,
		FieldAdvanceMemo,
		FieldResult,
		FieldStatus,
		FieldActionContact,
	}
}

// Annotation columns the matcher appends to claimed activity rows. The
// tier label keeps the trailing bracket the legacy sheets already use,
// so downstream consumers keep resolving it; readers must accept both
// spellings.
const (
	ColMatchedName = "マッチ顧客名"
	ColMatchedID   = FieldAccountID
	ColMatchedTier = "顧客区分（管理番号:19103）」"

	// ColTierCanonical is the bracket-free spelling of the tier label.
	ColTierCanonical = "顧客区分（管理番号:19103）"
)
