package options

import "testing"

func TestValidateAddress(t *testing.T) {
	for _, addr := range []string{"0.0.0.0:8947", "127.0.0.1:1883", "[::1]:80"} {
		if err := ValidateAddress(addr); err != nil {
			t.Errorf("ValidateAddress(%q): %v", addr, err)
		}
	}
	for _, addr := range []string{"", "localhost", "host:0", "host:99999", "host:abc"} {
		if err := ValidateAddress(addr); err == nil {
			t.Errorf("ValidateAddress(%q) succeeded, want error", addr)
		}
	}
}

func TestLdmOptionsValidate(t *testing.T) {
	if errs := NewLdmOptions().Validate(); len(errs) != 0 {
		t.Errorf("default options invalid: %v", errs)
	}

	bad := NewLdmOptions()
	bad.Strategy = "lazy"
	bad.AreaRadius = -1
	bad.Latitude = 123
	if errs := bad.Validate(); len(errs) != 3 {
		t.Errorf("Validate() found %d problems, want 3: %v", len(errs), errs)
	}
}
