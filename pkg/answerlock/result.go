package answerlock

// Result is the outcome of a Decrypt call whose output decoded as text.
// TagValid carries the integrity verdict either way: a decoded message
// with a failed tag is a reportable outcome, not an error.
type Result struct {
	Message  string
	TagValid bool
}
