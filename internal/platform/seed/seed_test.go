package seed

import (
	"testing"
)

func TestLoad_EmbeddedFixtures(t *testing.T) {
	t.Parallel()

	f, err := Load()
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if len(f.Users) != 7 {
		t.Fatalf("users=%d, want one per role", len(f.Users))
	}
	roles := map[string]bool{}
	for _, u := range f.Users {
		if u.Email == "" || u.Password == "" {
			t.Fatalf("incomplete user %+v", u)
		}
		roles[u.Role] = true
	}
	if len(roles) != 7 {
		t.Fatalf("roles=%v", roles)
	}
	if f.Settings == nil || f.Settings.AppName != "WeCare" {
		t.Fatalf("settings=%+v", f.Settings)
	}

	types := map[string]bool{}
	for _, vt := range f.VehicleTypes {
		types[vt.Name] = true
	}
	for _, v := range f.Vehicles {
		if !types[v.Type] {
			t.Fatalf("vehicle %s references unknown type %q", v.LicensePlate, v.Type)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("users: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}
