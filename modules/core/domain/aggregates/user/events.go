package user

// Domain events published on the application event bus after a successful
// commit. Sender is the acting user's id, zero when unauthenticated (seeding).

type CreatedEvent struct {
	Sender uint
	Result User
}

type UpdatedEvent struct {
	Sender uint
	Result User
}

type DeletedEvent struct {
	Sender uint
	Result User
}
