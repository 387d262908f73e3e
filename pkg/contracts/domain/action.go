package domain

// ActionType is the classified category of a sales activity, in the
// downstream CRM's own vocabulary.
type ActionType string

const (
	ActionMeeting      ActionType = "面談"
	ActionPhone        ActionType = "電話"
	ActionEmail        ActionType = "メール"
	ActionInternalTask ActionType = "社内タスク"
	ActionExternalTask ActionType = "社外タスク"
)
