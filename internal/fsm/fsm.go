package fsm

// Order lifecycle states. Delivered and Cancelled are terminal.
const (
	OrderStateConfirming      = "confirming"
	OrderStatePreparing       = "preparing"
	OrderStateCourierAssigned = "courier_assigned"
	OrderStateEnRoute         = "en_route"
	OrderStateDelivered       = "delivered"
	OrderStateCancelled       = "cancelled"
)

// Order lifecycle events.
const (
	OrderEventPrepare = "prepare"
	OrderEventAssign  = "assign_courier"
	OrderEventDepart  = "depart"
	OrderEventDeliver = "deliver"
	OrderEventCancel  = "cancel"
)

const (
	ProcessorStateIdle            = "idle"
	ProcessorStateHandlingMessage = "handling_message"
	ProcessorStateSendingReply    = "sending_reply"
)

const (
	ProcessorEventMessageReceived = "message_received"
	ProcessorEventMessageHandled  = "message_handled"
	ProcessorEventReplySent       = "reply_sent"
	ProcessorEventError           = "error"
)

// OrderSequence is the forward chain every order walks through.
var OrderSequence = []string{
	OrderStateConfirming,
	OrderStatePreparing,
	OrderStateCourierAssigned,
	OrderStateEnRoute,
	OrderStateDelivered,
}

// IsTerminal reports whether no further transition may leave state.
func IsTerminal(state string) bool {
	return state == OrderStateDelivered || state == OrderStateCancelled
}
