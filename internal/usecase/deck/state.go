package usecase_deck

type State string

const (
	StateDealing           State = "DEALING"
	StateRegularExhausted  State = "REGULAR_EXHAUSTED"
	StateWaitingForPartner State = "WAITING_FOR_PARTNER"
	StateFallbackDealing   State = "FALLBACK_DEALING"
	StateFallbackExhausted State = "FALLBACK_EXHAUSTED"
	StateEmpty             State = "EMPTY"
	StateMatched           State = "MATCHED"
)

// Transient states never outlive the transition that entered them.
func (s State) Transient() bool {
	return s == StateRegularExhausted || s == StateFallbackExhausted
}
