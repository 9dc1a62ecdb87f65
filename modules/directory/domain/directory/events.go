package directory

type IssuerCreatedEvent struct {
	Sender uint
	Result *Issuer
}

type IssuerUpdatedEvent struct {
	Sender uint
	Result *Issuer
}

type PartnerCreatedEvent struct {
	Sender uint
	Result *Partner
}

type PartnerUpdatedEvent struct {
	Sender uint
	Result *Partner
}

type SystemDefaultCreatedEvent struct {
	Sender uint
	Result *SystemDefault
}

type SystemDefaultUpdatedEvent struct {
	Sender uint
	Result *SystemDefault
}
