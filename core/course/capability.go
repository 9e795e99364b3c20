package course

// Capability decides whether a caller may propose writes in a course. The loop
// driver asks once per turn and picks the prompt variant and tool allowlist
// from the answer.
type Capability interface {
	IsEffectivelyReadWrite(user User, c Course) bool
}

// CapabilityFunc adapts a function to Capability.
type CapabilityFunc func(user User, c Course) bool

func (f CapabilityFunc) IsEffectivelyReadWrite(user User, c Course) bool {
	return f(user, c)
}

// RoleCapability grants read-write to admins and to instructors and TAs
// enrolled in the snapshot's course. Everyone else is read-only.
type RoleCapability struct {
	Snapshot Snapshot
}

func (r RoleCapability) IsEffectivelyReadWrite(user User, c Course) bool {
	if user.Admin {
		return true
	}
	if r.Snapshot == nil || r.Snapshot.Course().ID != c.ID {
		return false
	}
	e, ok := FindEnrollmentByUser(r.Snapshot, user.ID)
	if !ok {
		return false
	}
	return e.Role == RoleInstructor || e.Role == RoleTA
}
