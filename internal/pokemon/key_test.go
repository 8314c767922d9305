package pokemon

import "testing"

func TestParseKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw    string
		isID   bool
		id     int
		name   string
		render string
	}{
		{"25", true, 25, "", "25"},
		{" 7 ", true, 7, "", "7"},
		{"Pikachu", false, 0, "pikachu", "pikachu"},
		{"mr-mime", false, 0, "mr-mime", "mr-mime"},
	}

	for _, tc := range cases {
		key := ParseKey(tc.raw)
		if key.IsID() != tc.isID || key.ID() != tc.id || key.Name() != tc.name || key.String() != tc.render {
			t.Fatalf("ParseKey(%q) = %#v", tc.raw, key)
		}
	}
}

func TestKeyValidate(t *testing.T) {
	t.Parallel()

	if err := ByID(1).Validate(); err != nil {
		t.Fatalf("expected id 1 to be valid, got %v", err)
	}
	if err := ByName("eevee").Validate(); err != nil {
		t.Fatalf("expected name to be valid, got %v", err)
	}
	if err := ByID(0).Validate(); err == nil {
		t.Fatalf("expected id 0 to be rejected")
	}
	if err := ParseKey("").Validate(); err == nil {
		t.Fatalf("expected empty key to be rejected")
	}
}

func TestKeyFlightKeysDoNotCollide(t *testing.T) {
	t.Parallel()

	if ByID(25).flightKey() == ByName("25").flightKey() {
		t.Fatalf("expected id and name keys to use distinct flight keys")
	}
}
