package database

import (
	"testing"

	"github.com/google/uuid"
)

func TestTenantSchemaName(t *testing.T) {
	id := uuid.MustParse("a1b2c3d4-e5f6-4a5b-8c9d-0e1f2a3b4c5d")
	got := TenantSchemaName(id)
	want := "tenant_a1b2c3d4_e5f6_4a5b_8c9d_0e1f2a3b4c5d"
	if got != want {
		t.Errorf("TenantSchemaName() = %s, want %s", got, want)
	}
}
