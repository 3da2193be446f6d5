package testdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseURL(t *testing.T) {
	tests := []struct {
		name     string
		primary  string
		fallback string
		want     string
	}{
		{"primary wins", "postgres://a", "postgres://b", "postgres://a"},
		{"fallback used", "", "postgres://b", "postgres://b"},
		{"neither set", "", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", tc.primary)
			t.Setenv("ADAPTIQ_TEST_DB_URL", tc.fallback)
			assert.Equal(t, tc.want, DatabaseURL())
		})
	}
}

func TestOpenSkipsWithoutURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ADAPTIQ_TEST_DB_URL", "")

	skipped := t.Run("inner", func(t *testing.T) {
		Open(t)
		t.Error("Open should have skipped")
	})
	assert.True(t, skipped)
}
