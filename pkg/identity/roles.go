package identity

// roleRank orders roles by authority. The hierarchy is a total order, so a
// single integer comparison answers every permission question.
var roleRank = map[Role]int{
	RoleBDE:     1,
	RoleAE:      2,
	RoleManager: 3,
	RoleAdmin:   4,
}

// HasPermission reports whether the actor's role meets or exceeds the
// required role. Unknown roles never pass.
func HasPermission(actor, required Role) bool {
	actorRank, ok := roleRank[actor]
	if !ok {
		return false
	}
	requiredRank, ok := roleRank[required]
	if !ok {
		return false
	}
	return actorRank >= requiredRank
}

// Capability predicates. Each maps onto a minimum role; they exist so call
// sites name the business question instead of repeating role comparisons.

// CanViewAllRecords reports whether the role may read records outside its
// own assignments
func CanViewAllRecords(r Role) bool { return HasPermission(r, RoleManager) }

// CanManageAccounts reports whether the role may create and edit accounts
func CanManageAccounts(r Role) bool { return HasPermission(r, RoleAdmin) }

// CanViewAnalytics reports whether the role may access analytics views
func CanViewAnalytics(r Role) bool { return HasPermission(r, RoleAE) }

// CanAssignRecords reports whether the role may reassign record ownership
func CanAssignRecords(r Role) bool { return HasPermission(r, RoleManager) }

// CanManageTerritories reports whether the role may restructure territories
func CanManageTerritories(r Role) bool { return HasPermission(r, RoleAdmin) }

// CanSendSystemBroadcasts reports whether the role may send broadcasts to
// all users
func CanSendSystemBroadcasts(r Role) bool { return HasPermission(r, RoleAdmin) }
