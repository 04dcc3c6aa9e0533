package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		kind    FilterKind
		raw     string
		want    any
		wantErr string
	}{
		{"string passes through", FilterString, " Design ", " Design ", ""},
		{"bool", FilterBool, "false", false, ""},
		{"bool shorthand", FilterBool, "1", true, ""},
		{"bad bool", FilterBool, "perhaps", nil, "must be a boolean"},
		{"date", FilterTime, "2025-02-01", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), ""},
		{"timestamp to UTC", FilterTime, "2025-02-01T10:00:00+02:00", time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC), ""},
		{"bad time", FilterTime, "tomorrow", nil, "RFC 3339"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter("due_from", tt.kind, tt.raw)
			if tt.wantErr != "" {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Contains(t, err.Error(), "due_from")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterKinds_Keys(t *testing.T) {
	assert.Equal(t, []string{"department", "is_active", "role", "status"}, UserFilterKinds.Keys())
}
