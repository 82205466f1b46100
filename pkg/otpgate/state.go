package otpgate

// VerificationState is the verification progress of one email.
type VerificationState int

const (
	Unsent VerificationState = iota
	Sent
	Verified
)

func (s VerificationState) String() string {
	switch s {
	case Sent:
		return "sent"
	case Verified:
		return "verified"
	default:
		return "unsent"
	}
}

func (s VerificationState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
