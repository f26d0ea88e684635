package security

import "testing"

func TestSecretEqual(t *testing.T) {
	testCases := []struct {
		name       string
		presented  string
		configured string
		want       bool
	}{
		{"match", "s3cret", "s3cret", true},
		{"mismatch", "wrong", "s3cret", false},
		{"empty configured denies", "anything", "", false},
		{"both empty still denies", "", "", false},
		{"empty presented", "", "s3cret", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SecretEqual(tc.presented, tc.configured); got != tc.want {
				t.Errorf("SecretEqual(%q, %q) = %v, want %v", tc.presented, tc.configured, got, tc.want)
			}
		})
	}
}
