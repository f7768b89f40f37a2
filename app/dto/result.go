package dto

// TokenPair is what login and refresh hand back to the caller.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// JournalEntryFields are the writable fields of an entry. A nil field is left
// untouched by an update.
type JournalEntryFields struct {
	Work      *string
	Struggle  *string
	Intention *string
}
