package fsm

import (
	"context"
	"sync"

	"github.com/looplab/fsm"
)

// MessageProcessorFSM tracks what the bot is doing with the message it is
// currently serving. Transports consult it to reject overlapping work and to
// report status.
type MessageProcessorFSM struct {
	fsm     *fsm.FSM
	mu      sync.Mutex
	onEnter map[string]func()
}

func NewMessageProcessorFSM() *MessageProcessorFSM {
	mp := &MessageProcessorFSM{
		onEnter: make(map[string]func()),
	}
	mp.fsm = fsm.NewFSM(
		ProcessorStateIdle,
		fsm.Events{
			{Name: ProcessorEventMessageReceived, Src: []string{ProcessorStateIdle}, Dst: ProcessorStateHandlingMessage},
			{Name: ProcessorEventMessageHandled, Src: []string{ProcessorStateHandlingMessage}, Dst: ProcessorStateSendingReply},
			{Name: ProcessorEventReplySent, Src: []string{ProcessorStateSendingReply}, Dst: ProcessorStateIdle},
			{Name: ProcessorEventError, Src: []string{ProcessorStateHandlingMessage, ProcessorStateSendingReply}, Dst: ProcessorStateIdle},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				if fn, ok := mp.onEnter[e.Dst]; ok {
					fn()
				}
			},
		},
	)
	return mp
}

func (mp *MessageProcessorFSM) Current() string {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.fsm.Current()
}

func (mp *MessageProcessorFSM) Event(ctx context.Context, event string) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.fsm.Event(ctx, event)
}

func (mp *MessageProcessorFSM) Can(event string) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.fsm.Can(event)
}

// OnEnter registers fn to run whenever the machine enters state. Callbacks
// run with the machine's lock held and must not call back into it.
func (mp *MessageProcessorFSM) OnEnter(state string, fn func()) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.onEnter[state] = fn
}

func (mp *MessageProcessorFSM) Reset() {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.fsm.SetState(ProcessorStateIdle)
}
