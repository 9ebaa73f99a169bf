package screening

import (
	"strings"

	"github.com/google/uuid"
)

// RefKind discriminates CandidateRef.
type RefKind int

// Reference kinds.
const (
	// RefUnknown is a reference that is neither an identifier nor an email.
	RefUnknown RefKind = iota
	// RefByID is a canonical candidate identifier.
	RefByID
	// RefByEmail is an email address.
	RefByEmail
)

// CandidateRef is a candidate reference as it arrives from outside the
// roster, for example echoed back by the classifier.
type CandidateRef struct {
	kind  RefKind
	id    uuid.UUID
	email string
	raw   string
}

// ByID returns a reference to a canonical candidate id.
func ByID(id uuid.UUID) CandidateRef {
	return CandidateRef{kind: RefByID, id: id, raw: id.String()}
}

// ByEmail returns a reference to a candidate email.
func ByEmail(email string) CandidateRef {
	email = strings.TrimSpace(email)
	return CandidateRef{kind: RefByEmail, email: normalizeEmail(email), raw: email}
}

// ParseRef classifies a raw reference string.
func ParseRef(raw string) CandidateRef {
	trimmed := strings.TrimSpace(raw)
	if id, err := uuid.Parse(trimmed); err == nil {
		return ByID(id)
	}
	if strings.Contains(trimmed, "@") {
		return ByEmail(trimmed)
	}
	return CandidateRef{kind: RefUnknown, raw: raw}
}

// Kind returns the reference kind.
func (r CandidateRef) Kind() RefKind { return r.kind }

// ID returns the identifier of a RefByID reference.
func (r CandidateRef) ID() (uuid.UUID, bool) {
	return r.id, r.kind == RefByID
}

// Email returns the normalized address of a RefByEmail reference.
func (r CandidateRef) Email() (string, bool) {
	return r.email, r.kind == RefByEmail
}

// String returns the reference as it was supplied.
func (r CandidateRef) String() string { return r.raw }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
