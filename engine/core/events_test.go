package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testListener struct {
	name     string
	received []SystemEventCode
	handle   bool
}

func (l *testListener) onEvent(code SystemEventCode, sender interface{}, listener interface{}, data EventContext) bool {
	l.received = append(l.received, code)
	return l.handle
}

func TestEventSystemFireStopsWhenHandled(t *testing.T) {
	es := NewEventSystem()
	first := &testListener{name: "first", handle: true}
	second := &testListener{name: "second"}

	assert.True(t, es.Register(EVENT_CODE_APPLICATION_QUIT, first, first.onEvent))
	assert.True(t, es.Register(EVENT_CODE_APPLICATION_QUIT, second, second.onEvent))

	assert.True(t, es.Fire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{}))
	assert.Equal(t, []SystemEventCode{EVENT_CODE_APPLICATION_QUIT}, first.received)
	assert.Empty(t, second.received)
}

func TestEventSystemRejectsDuplicateListener(t *testing.T) {
	es := NewEventSystem()
	l := &testListener{}

	assert.True(t, es.Register(EVENT_CODE_RESUMED, l, l.onEvent))
	assert.False(t, es.Register(EVENT_CODE_RESUMED, l, l.onEvent))
	assert.False(t, es.Register(EVENT_CODE_RESUMED, l, nil))
}

func TestEventSystemUnregister(t *testing.T) {
	es := NewEventSystem()
	a := &testListener{}
	b := &testListener{}
	es.Register(EVENT_CODE_RUNNING_SLOWLY_CHANGED, a, a.onEvent)
	es.Register(EVENT_CODE_RUNNING_SLOWLY_CHANGED, b, b.onEvent)

	assert.True(t, es.Unregister(EVENT_CODE_RUNNING_SLOWLY_CHANGED, a))
	assert.False(t, es.Unregister(EVENT_CODE_RUNNING_SLOWLY_CHANGED, a))

	assert.False(t, es.Fire(EVENT_CODE_RUNNING_SLOWLY_CHANGED, nil, EventContext{Data: true}))
	assert.Empty(t, a.received)
	assert.Len(t, b.received, 1)

	assert.NoError(t, es.Shutdown())
	es.Fire(EVENT_CODE_RUNNING_SLOWLY_CHANGED, nil, EventContext{})
	assert.Len(t, b.received, 1)
}
