package activity

import (
	"sync"
	"testing"

	"github.com/flowmesh/flowmesh/logging"
	"github.com/stretchr/testify/assert"
)

func TestMemorySink_RecordsInOrder(t *testing.T) {
	sink := NewMemorySink()
	sink.Log(Event{Action: ActionStepStart, Target: "a", TraceID: "t1"})
	sink.Log(Event{Action: ActionStepEnd, Target: "a", TraceID: "t1"})

	events := sink.Events()
	assert.Len(t, events, 2)
	assert.Equal(t, ActionStepStart, events[0].Action)
	assert.Equal(t, ActionStepEnd, events[1].Action)
}

func TestMemorySink_ConcurrentWriters(t *testing.T) {
	sink := NewMemorySink()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Log(Event{Action: ActionStepEnd, Target: "x"})
		}()
	}
	wg.Wait()

	assert.Len(t, sink.ByAction(ActionStepEnd), 20)
}

func TestSlogSink_NilLogger(t *testing.T) {
	sink := NewSlogSink(nil)
	assert.NotPanics(t, func() {
		sink.Log(Event{Action: ActionFlowEnd, Target: "flow-1"})
	})
}

func TestSlogSink_Forwards(t *testing.T) {
	sink := NewSlogSink(logging.NoOpLogger{})
	assert.NotPanics(t, func() {
		sink.Log(Event{Action: ActionStepStart, Target: "a", Payload: map[string]any{"agent": "scan"}})
	})
}
