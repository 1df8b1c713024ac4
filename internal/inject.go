package internal

import (
	"context"
	"fmt"
)

// Context injection field names, also used as the metadata tag value
const (
	FieldTopBenefit = "top_benefit"
	FieldTopRisk    = "top_risk"
)

// metadataKindInjected tags injected messages so transcript and analytics
// logic never mistakes them for participant speech.
const metadataKindInjected = "context_injection"

// ContextInjector prepends authoritative survey-derived context into the
// conversation thread. Each distinct value is injected at most once per
// thread generation; a changed value produces an override variant rather
// than a duplicate. Injection is best-effort: failures are logged and the
// turn proceeds without the context.
type ContextInjector struct {
	Client AssistantClient
}

// InjectSurveyContext injects the participant's top-ranked benefit and risk,
// when supplied, ahead of the current user turn.
func (ci *ContextInjector) InjectSurveyContext(ctx context.Context, sess *Session, topBenefit, topRisk string) {
	ci.inject(ctx, sess, FieldTopBenefit, "top-ranked benefit", topBenefit)
	ci.inject(ctx, sess, FieldTopRisk, "top-ranked risk", topRisk)
}

func (ci *ContextInjector) inject(ctx context.Context, sess *Session, field, label, value string) {
	if value == "" {
		return
	}

	prev, seen := sess.InjectedValue(field)
	if seen && prev == value {
		return
	}

	var content string
	if !seen {
		content = fmt.Sprintf(
			"AUTHORITATIVE CONTEXT (not participant speech): the participant's %s from the survey is: \"%s\". When the interview reaches the question about their %s, use this exact wording rather than asking again.",
			label, value, label)
	} else {
		content = fmt.Sprintf(
			"AUTHORITATIVE CONTEXT UPDATE (not participant speech): the participant's %s is now: \"%s\". This overrides any earlier context about their %s; disregard the previous value.",
			label, value, label)
	}

	metadata := map[string]string{
		"kind":  metadataKindInjected,
		"field": field,
	}

	if err := ci.Client.AddMessage(ctx, sess.ThreadID, RoleUser, content, metadata); err != nil {
		LogWarn("context injection failed for %s on thread %s: %v", field, sess.ThreadID, err)
		return
	}

	sess.MarkInjected(field, value)
	LogDebug("injected %s context into thread %s", field, sess.ThreadID)
}
