package fsm

import (
	"context"
	"sync"

	"github.com/looplab/fsm"
)

type OrderStateMachine struct {
	fsm *fsm.FSM
	mu  sync.Mutex
}

func NewOrderStateMachine() *OrderStateMachine {
	nonTerminal := []string{
		OrderStateConfirming,
		OrderStatePreparing,
		OrderStateCourierAssigned,
		OrderStateEnRoute,
	}
	osm := &OrderStateMachine{}
	osm.fsm = fsm.NewFSM(
		OrderStateConfirming,
		fsm.Events{
			{Name: OrderEventPrepare, Src: []string{OrderStateConfirming}, Dst: OrderStatePreparing},
			{Name: OrderEventAssign, Src: []string{OrderStatePreparing}, Dst: OrderStateCourierAssigned},
			{Name: OrderEventDepart, Src: []string{OrderStateCourierAssigned}, Dst: OrderStateEnRoute},
			{Name: OrderEventDeliver, Src: []string{OrderStateEnRoute}, Dst: OrderStateDelivered},
			{Name: OrderEventCancel, Src: nonTerminal, Dst: OrderStateCancelled},
		},
		fsm.Callbacks{},
	)
	return osm
}

func (osm *OrderStateMachine) CanTransition(currentState, event string) bool {
	osm.mu.Lock()
	defer osm.mu.Unlock()
	osm.fsm.SetState(currentState)
	return osm.fsm.Can(event)
}

func (osm *OrderStateMachine) Transition(ctx context.Context, currentState, event string) (string, error) {
	osm.mu.Lock()
	defer osm.mu.Unlock()
	osm.fsm.SetState(currentState)
	if err := osm.fsm.Event(ctx, event); err != nil {
		return "", err
	}
	return osm.fsm.Current(), nil
}

// Advance fires the forward event for currentState. Terminal states have no
// forward event and return an InvalidEventError from the underlying machine.
func (osm *OrderStateMachine) Advance(ctx context.Context, currentState string) (string, error) {
	return osm.Transition(ctx, currentState, ForwardEvent(currentState))
}

func (osm *OrderStateMachine) AvailableEvents(currentState string) []string {
	osm.mu.Lock()
	defer osm.mu.Unlock()
	osm.fsm.SetState(currentState)
	return osm.fsm.AvailableTransitions()
}

// ForwardEvent maps a state to the event that moves it one step along
// OrderSequence. Returns OrderEventDeliver for unknown states so the machine
// rejects them.
func ForwardEvent(state string) string {
	switch state {
	case OrderStateConfirming:
		return OrderEventPrepare
	case OrderStatePreparing:
		return OrderEventAssign
	case OrderStateCourierAssigned:
		return OrderEventDepart
	default:
		return OrderEventDeliver
	}
}
