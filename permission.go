package authcore

// AuthorizeResult is the outcome of a permission-hierarchy check.
type AuthorizeResult int

const (
	Unauthorized AuthorizeResult = iota
	Authorized
)

func (r AuthorizeResult) String() string {
	if r == Authorized {
		return "authorized"
	}
	return "unauthorized"
}

// AuthorizeAtLeast reports whether a caller holding callerLevel clears the
// required level. The comparison is inclusive: a caller at exactly the
// required level is authorized.
//
// callerLevel is the raw integer carried in the caller's token; it is not
// normalized through PermissionFromInt because the stored integer is the
// unit of comparison, not the enum.
func AuthorizeAtLeast(callerLevel int, required PermissionLevel) AuthorizeResult {
	if callerLevel >= required.Level() {
		return Authorized
	}
	return Unauthorized
}

// AuthorizeExact reports whether the caller holds exactly the required
// level. Used for operations restricted to a single level, such as grant
// issuance (Admin only).
func AuthorizeExact(callerLevel int, required PermissionLevel) AuthorizeResult {
	if callerLevel == required.Level() {
		return Authorized
	}
	return Unauthorized
}

// CanActOnSelf reports whether the actor is operating on its own record.
// Self-service actions are always permitted regardless of level, so callers
// must check this before falling through to CanActOnOther.
func CanActOnSelf(actorSubject, targetSubject string) bool {
	return actorSubject == targetSubject
}

// CanActOnOther decides whether an actor may mutate a different subject's
// record: the actor's level must be at least the target's level.
func CanActOnOther(callerLevel int, targetLevel PermissionLevel) AuthorizeResult {
	return AuthorizeAtLeast(callerLevel, targetLevel)
}
