package domain

// IntentTag is the closed set of labels the classifier may assign to a
// conversation turn. The notes and sales values double as the domain tag
// stored with every vector entry.
type IntentTag string

const (
	IntentNotes             IntentTag = "notes"
	IntentSales             IntentTag = "sales"
	IntentGeneral           IntentTag = "general"
	IntentCreateNote        IntentTag = "createNote"
	IntentCreateSalesRecord IntentTag = "createSalesRecord"
)

func (t IntentTag) String() string { return string(t) }

func (t IntentTag) IsValid() bool {
	switch t {
	case IntentNotes, IntentSales, IntentGeneral, IntentCreateNote, IntentCreateSalesRecord:
		return true
	}
	return false
}

// IsDomain reports whether the tag names a record domain.
func (t IntentTag) IsDomain() bool {
	return t == IntentNotes || t == IntentSales
}

// IntentTags returns every tag in classifier order.
func IntentTags() []IntentTag {
	return []IntentTag{
		IntentNotes,
		IntentSales,
		IntentGeneral,
		IntentCreateNote,
		IntentCreateSalesRecord,
	}
}

// Metadata keys present on every indexed record.
const (
	MetaUserID    = "userId"
	MetaDomainTag = "embeddingFilterTag"
)
