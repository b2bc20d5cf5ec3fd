package access

import "testing"

func TestParseAccessLevel(t *testing.T) {
	cases := []struct {
		in  string
		out AccessLevel
	}{
		{"", -1},
		{"admin", -1},
		{Anonymous.String(), Anonymous},
		{AuthenticatedOnly.String(), AuthenticatedOnly},
		{ChairEquivalent.String(), ChairEquivalent},
		{AdminEquivalent.String(), AdminEquivalent},
	}

	for _, c := range cases {
		out := ParseAccessLevel(c.in)
		if out != c.out {
			t.Errorf("ParseAccessLevel(%q) => %d, want %d", c.in, out, c.out)
		}
	}
}

func TestLevelsAreOrdered(t *testing.T) {
	if !(Anonymous < AuthenticatedOnly && AuthenticatedOnly < ChairEquivalent && ChairEquivalent < AdminEquivalent) {
		t.Error("access levels are not ordered")
	}
}

func TestRoleLevel(t *testing.T) {
	cases := []struct {
		role Role
		want AccessLevel
	}{
		{RoleChair, ChairEquivalent},
		{RoleCoChair, ChairEquivalent},
		{RoleDirector, ChairEquivalent},
		{RoleSuperadmin, AdminEquivalent},
		{"admin", AuthenticatedOnly},
		{"Chair", AuthenticatedOnly},
		{"", AuthenticatedOnly},
	}

	for _, c := range cases {
		if got := c.role.Level(); got != c.want {
			t.Errorf("Role(%q).Level() => %s, want %s", c.role, got, c.want)
		}
	}
}

func TestUnmarshalText(t *testing.T) {
	var l AccessLevel
	if err := l.UnmarshalText([]byte("chair-equivalent")); err != nil {
		t.Fatal(err)
	}
	if l != ChairEquivalent {
		t.Errorf("UnmarshalText => %s, want %s", l, ChairEquivalent)
	}
	if err := l.UnmarshalText([]byte("root")); err != ErrInvalidAccessLevel {
		t.Errorf("UnmarshalText(root) => %v, want %v", err, ErrInvalidAccessLevel)
	}
}

func TestCredentials(t *testing.T) {
	var c Credential = IdentitySession{}
	if !c.Empty() || c.Root() != IdentityRoot {
		t.Errorf("empty identity session => %v", c)
	}
	c = SharedSecretMarker{Token: "m"}
	if c.Empty() || c.Root() != BreakGlassRoot {
		t.Errorf("marker => %v", c)
	}
}
