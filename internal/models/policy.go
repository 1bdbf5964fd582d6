package models

// DeletePolicy declares how an entity may be removed, making the rule
// set auditable instead of scattering it across handlers.
type DeletePolicy string

const (
	// SoftDelete flips IsActive to false and retains the row.
	SoftDelete DeletePolicy = "soft"
	// GuardedHardDelete removes the row, but only when no disqualifying
	// active dependents exist.
	GuardedHardDelete DeletePolicy = "guarded-hard"
)

// DeletePolicyFor returns the declared delete policy per entity name.
// Entities not listed are soft-deleted.
func DeletePolicyFor(entity string) DeletePolicy {
	switch entity {
	case "student", "class_room", "course":
		return GuardedHardDelete
	default:
		return SoftDelete
	}
}
