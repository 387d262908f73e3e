package transform

import (
	"strings"

	"crmbridge/pkg/contracts/domain"
)

// faceToFace short-circuits classification to Meeting when either the
// method field or the activity-type field equals it exactly.
const faceToFace = "対面"

// Classify maps one activity's signals onto an action type. The method
// and activity-type fields are compared after trimming; free text is
// matched lowercased. The activity-type field sets a baseline, then the
// free-text keyword sets override it in fixed priority: email, phone,
// external task, internal task. The first set with a hit wins and later
// sets are not consulted. Nothing matching anything stays ExternalTask.
func (s *Service) Classify(methodValue, typeValue, freeText string) domain.ActionType {
	mv := strings.TrimSpace(methodValue)
	kv := strings.TrimSpace(typeValue)
	ft := strings.ToLower(freeText)

	if mv == faceToFace || kv == faceToFace {
		return domain.ActionMeeting
	}

	action := domain.ActionExternalTask
	switch {
	case strings.Contains(kv, "電話"):
		action = domain.ActionPhone
	case strings.Contains(kv, "メール"):
		action = domain.ActionEmail
	case strings.Contains(kv, "会議") || strings.Contains(strings.ToLower(kv), "mtg"):
		action = domain.ActionInternalTask
	}

	switch {
	case containsAny(ft, s.vocab.EmailWords):
		action = domain.ActionEmail
	case containsAny(ft, s.vocab.PhoneWords):
		action = domain.ActionPhone
	case containsAny(ft, s.vocab.ExternalTaskWords):
		action = domain.ActionExternalTask
	case containsAny(ft, s.vocab.InternalTaskWords):
		action = domain.ActionInternalTask
	}

	return action
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
