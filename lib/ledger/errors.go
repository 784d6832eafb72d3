package ledger

// --------------------------------------------------------------------------
// Error Kinds
// --------------------------------------------------------------------------

// Kind classifies the domain errors of the ledger. Errors of the underlying
// dictionaries are returned untouched and are never wrapped in an *Error.
type Kind uint8

const (
	KindInvalid            Kind = iota + 1 // Blank enterprise id, account code or nil repository
	KindAccountExists                      // Account code already in use
	KindUnknownAccount                     // Account code does not exist
	KindEmptyTransaction                   // Transaction without entries
	KindUnbalanced                         // Entries of a transaction do not sum up to zero
	KindUnknownTransaction                 // Transaction id does not exist
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "Invalid"
	case KindAccountExists:
		return "AccountExists"
	case KindUnknownAccount:
		return "UnknownAccount"
	case KindEmptyTransaction:
		return "EmptyTransaction"
	case KindUnbalanced:
		return "Unbalanced"
	case KindUnknownTransaction:
		return "UnknownTransaction"
	default:
		return "Unknown"
	}
}

// Sentinel errors to compare against with errors.Is
var (
	ErrInvalid            = &Error{Kind: KindInvalid}
	ErrAccountExists      = &Error{Kind: KindAccountExists}
	ErrUnknownAccount     = &Error{Kind: KindUnknownAccount}
	ErrEmptyTransaction   = &Error{Kind: KindEmptyTransaction}
	ErrUnbalanced         = &Error{Kind: KindUnbalanced}
	ErrUnknownTransaction = &Error{Kind: KindUnknownTransaction}
)

// Error is a violated precondition of a ledger operation
type Error struct {
	Kind Kind
	Msg  string
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Msg
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
