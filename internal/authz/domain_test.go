package authz

import "testing"

func grants(roles ...Role) []Grant {
	out := make([]Grant, 0, len(roles))
	for _, r := range roles {
		out = append(out, Grant{Role: r})
	}
	return out
}

func TestHasRole(t *testing.T) {
	id := Identity{Roles: grants(RoleVip, RoleUser)}
	if !id.HasRole(RoleVip) {
		t.Fatal("expected vip role")
	}
	if id.HasRole(RoleAdmin) {
		t.Fatal("unexpected admin role")
	}

	var empty Identity
	if empty.HasRole(RoleUser) {
		t.Fatal("zero identity must hold no roles")
	}
}

func TestIsModerator(t *testing.T) {
	cases := []struct {
		name  string
		roles []Role
		want  bool
	}{
		{"admin", []Role{RoleAdmin}, true},
		{"moderator", []Role{RoleModerator}, true},
		{"admin and vip", []Role{RoleAdmin, RoleVip}, true},
		{"vip only", []Role{RoleVip}, false},
		{"user only", []Role{RoleUser}, false},
		{"empty", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := Identity{Roles: grants(tc.roles...)}
			if got := id.IsModerator(); got != tc.want {
				t.Fatalf("IsModerator() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleModerator, RoleVip, RoleUser} {
		if !r.Valid() {
			t.Fatalf("role %q should be valid", r)
		}
	}
	if Role("superuser").Valid() {
		t.Fatal("unknown role accepted")
	}
}
