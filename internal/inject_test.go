package internal

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestInjectFirstValueVerbatim(t *testing.T) {
	stub := &stubAssistant{}
	injector := &ContextInjector{Client: stub}
	sess := &Session{ID: "s1", ThreadID: "thread_1", injected: make(map[string]string)}

	injector.InjectSurveyContext(context.Background(), sess, "Better accessibility", "")

	if len(stub.messages) != 1 {
		t.Fatalf("injected %d messages, want 1", len(stub.messages))
	}
	if !strings.Contains(stub.messages[0], `"Better accessibility"`) {
		t.Errorf("injected message should carry the value verbatim:\n%s", stub.messages[0])
	}
	if !strings.Contains(stub.messages[0], "AUTHORITATIVE CONTEXT") {
		t.Errorf("first injection should use the authoritative variant:\n%s", stub.messages[0])
	}
}

func TestInjectSameValueOnce(t *testing.T) {
	stub := &stubAssistant{}
	injector := &ContextInjector{Client: stub}
	sess := &Session{ID: "s1", ThreadID: "thread_1", injected: make(map[string]string)}

	injector.InjectSurveyContext(context.Background(), sess, "privacy", "")
	injector.InjectSurveyContext(context.Background(), sess, "privacy", "")

	if len(stub.messages) != 1 {
		t.Errorf("repeated identical value injected %d messages, want 1", len(stub.messages))
	}
}

func TestInjectChangedValueOverrides(t *testing.T) {
	stub := &stubAssistant{}
	injector := &ContextInjector{Client: stub}
	sess := &Session{ID: "s1", ThreadID: "thread_1", injected: make(map[string]string)}

	injector.InjectSurveyContext(context.Background(), sess, "privacy", "")
	injector.InjectSurveyContext(context.Background(), sess, "security", "")

	if len(stub.messages) != 2 {
		t.Fatalf("injected %d messages, want 2", len(stub.messages))
	}
	second := stub.messages[1]
	if !strings.Contains(second, "UPDATE") || !strings.Contains(second, "overrides") {
		t.Errorf("changed value should inject the override variant:\n%s", second)
	}
	if !strings.Contains(second, `"security"`) {
		t.Errorf("override variant should carry the new value:\n%s", second)
	}
}

func TestInjectBothFields(t *testing.T) {
	stub := &stubAssistant{}
	injector := &ContextInjector{Client: stub}
	sess := &Session{ID: "s1", ThreadID: "thread_1", injected: make(map[string]string)}

	injector.InjectSurveyContext(context.Background(), sess, "accessibility", "job loss")

	if len(stub.messages) != 2 {
		t.Fatalf("injected %d messages, want 2", len(stub.messages))
	}
}

func TestInjectEmptyValuesSkipped(t *testing.T) {
	stub := &stubAssistant{}
	injector := &ContextInjector{Client: stub}
	sess := &Session{ID: "s1", ThreadID: "thread_1", injected: make(map[string]string)}

	injector.InjectSurveyContext(context.Background(), sess, "", "")

	if len(stub.messages) != 0 {
		t.Errorf("empty values injected %d messages, want 0", len(stub.messages))
	}
}

func TestInjectFailureIsBestEffort(t *testing.T) {
	stub := &stubAssistant{addErr: errors.New("boom")}
	injector := &ContextInjector{Client: stub}
	sess := &Session{ID: "s1", ThreadID: "thread_1", injected: make(map[string]string)}

	// Must not panic or mark the value as injected.
	injector.InjectSurveyContext(context.Background(), sess, "privacy", "")

	if _, ok := sess.InjectedValue(FieldTopBenefit); ok {
		t.Error("failed injection should not be recorded, so a retry can succeed")
	}
}
