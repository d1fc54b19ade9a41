package shared

// Well-known contribution type names. The catalog is open (new names are
// created lazily) but only these move a dedicated aggregate counter; unknown
// names move total_points alone.
const (
	TypeSubmission = "submission"
	TypeEdit       = "edit"
	TypeApproval   = "approval"
	TypeComment    = "comment"
)

// DefaultPointsFor returns the seeded default for the well-known types and 0
// for everything else.
func DefaultPointsFor(name string) int64 {
	switch name {
	case TypeSubmission:
		return 10
	case TypeEdit:
		return 5
	case TypeApproval:
		return 3
	case TypeComment:
		return 1
	default:
		return 0
	}
}

// CounterColumnFor maps a type name to the aggregate counter column it
// drives, or "" when only total_points moves.
func CounterColumnFor(name string) string {
	switch name {
	case TypeSubmission:
		return "submission_count"
	case TypeEdit:
		return "edit_count"
	case TypeApproval:
		return "approval_count"
	case TypeComment:
		return "comment_count"
	default:
		return ""
	}
}
