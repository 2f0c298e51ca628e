package identity

import "testing"

func TestHasPermissionHierarchy(t *testing.T) {
	// Every pair in the total order BDE < AE < MANAGER < ADMIN
	cases := []struct {
		actor    Role
		required Role
		want     bool
	}{
		{RoleBDE, RoleBDE, true},
		{RoleBDE, RoleAE, false},
		{RoleBDE, RoleManager, false},
		{RoleBDE, RoleAdmin, false},
		{RoleAE, RoleBDE, true},
		{RoleAE, RoleAE, true},
		{RoleAE, RoleManager, false},
		{RoleAE, RoleAdmin, false},
		{RoleManager, RoleBDE, true},
		{RoleManager, RoleAE, true},
		{RoleManager, RoleManager, true},
		{RoleManager, RoleAdmin, false},
		{RoleAdmin, RoleBDE, true},
		{RoleAdmin, RoleAE, true},
		{RoleAdmin, RoleManager, true},
		{RoleAdmin, RoleAdmin, true},
	}

	for _, tc := range cases {
		if got := HasPermission(tc.actor, tc.required); got != tc.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", tc.actor, tc.required, got, tc.want)
		}
	}
}

func TestHasPermissionUnknownRoles(t *testing.T) {
	if HasPermission(Role("SUPERUSER"), RoleBDE) {
		t.Error("unknown actor role must never pass")
	}
	if HasPermission(RoleAdmin, Role("SUPERUSER")) {
		t.Error("unknown required role must never pass")
	}
	if HasPermission(Role(""), Role("")) {
		t.Error("empty roles must never pass")
	}
}

func TestCapabilityPredicates(t *testing.T) {
	cases := []struct {
		name string
		fn   func(Role) bool
		min  Role
	}{
		{"CanViewAllRecords", CanViewAllRecords, RoleManager},
		{"CanManageAccounts", CanManageAccounts, RoleAdmin},
		{"CanViewAnalytics", CanViewAnalytics, RoleAE},
		{"CanAssignRecords", CanAssignRecords, RoleManager},
		{"CanManageTerritories", CanManageTerritories, RoleAdmin},
		{"CanSendSystemBroadcasts", CanSendSystemBroadcasts, RoleAdmin},
	}

	all := []Role{RoleBDE, RoleAE, RoleManager, RoleAdmin}
	for _, tc := range cases {
		for _, r := range all {
			want := HasPermission(r, tc.min)
			if got := tc.fn(r); got != want {
				t.Errorf("%s(%s) = %v, want %v", tc.name, r, got, want)
			}
		}
	}
}

func TestRoleAndStatusValid(t *testing.T) {
	for _, r := range []Role{RoleBDE, RoleAE, RoleManager, RoleAdmin} {
		if !r.Valid() {
			t.Errorf("role %s should be valid", r)
		}
	}
	if Role("bde").Valid() {
		t.Error("role matching is case sensitive")
	}

	for _, s := range []Status{StatusActive, StatusInactive, StatusOnLeave} {
		if !s.Valid() {
			t.Errorf("status %s should be valid", s)
		}
	}
	if Status("RETIRED").Valid() {
		t.Error("unknown status should be invalid")
	}
}
