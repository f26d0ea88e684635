package domain

import (
	"testing"
	"time"
)

func TestSessionRecord_Expired(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	testCases := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"nil expiry never expires", nil, false},
		{"future expiry", &future, false},
		{"past expiry", &past, true},
		{"exactly now is expired", &now, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &SessionRecord{ExpiresAt: tc.expiresAt}
			if got := rec.Expired(now); got != tc.want {
				t.Errorf("Expired = %v, want %v", got, tc.want)
			}
		})
	}
}
