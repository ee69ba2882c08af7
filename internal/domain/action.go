package domain

// NominationAction is a nomination submitted through the UI, identified by
// a random tag until its extrinsic result is reported.
type NominationAction struct {
	Stash         string   `bson:"stash" json:"stash"`
	Validators    []string `bson:"validators" json:"validators"`
	Amount        string   `bson:"amount" json:"amount"`
	Strategy      int      `bson:"strategy" json:"strategy"`
	Tag           string   `bson:"tag" json:"tag"`
	Chain         string   `bson:"chain" json:"chain"`
	ExtrinsicHash string   `bson:"extrinsicHash,omitempty" json:"extrinsicHash,omitempty"`
	RefKey        string   `bson:"refKey,omitempty" json:"refKey,omitempty"`
}

// RefKeyRecord is the referral key issued to a stash.
type RefKeyRecord struct {
	Stash     string `bson:"stash" json:"stash"`
	RefKey    string `bson:"refKey" json:"refKey"`
	Timestamp int64  `bson:"timestamp" json:"timestamp"` // unix seconds
}

// NewsletterSubscriber is one newsletter sign-up. Email is unique.
type NewsletterSubscriber struct {
	Email     string `bson:"email" json:"email"`
	Timestamp int64  `bson:"timestamp" json:"timestamp"` // unix seconds
}
