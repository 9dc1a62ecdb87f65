package cardrequest

// Events published after a committed mutation. Subscribers (audit trail)
// receive the authoritative post-commit record.

type CreatedEvent struct {
	Sender uint
	Result *CardRequest
}

type UpdatedEvent struct {
	Sender uint
	Result *CardRequest
}

type TransitionedEvent struct {
	Sender uint
	From   Status
	To     Status
	Result *CardRequest
}
