package notification

type CreatedEvent struct {
	Sender uint
	Result *Notification
}

type UpdatedEvent struct {
	Sender uint
	Result *Notification
}

type TransitionedEvent struct {
	Sender uint
	From   Status
	To     Status
	Result *Notification
}
