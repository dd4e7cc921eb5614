package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	var nilMap map[string]int
	var nilPtr *int
	n := 1

	tests := []struct {
		name    string
		deps    []any
		wantErr bool
	}{
		{name: "all present", deps: []any{&n, "queue", 3, map[string]int{}}},
		{name: "nil", deps: []any{nil}, wantErr: true},
		{name: "nil pointer", deps: []any{&n, nilPtr}, wantErr: true},
		{name: "nil map", deps: []any{nilMap}, wantErr: true},
		{name: "empty string", deps: []any{""}, wantErr: true},
		{name: "zero int", deps: []any{0}, wantErr: true},
		{name: "empty struct", deps: []any{struct{}{}}},
		{name: "no deps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate("component", tt.deps...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "component")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStruct(t *testing.T) {
	type in struct {
		Name string `validate:"required"`
	}

	assert.NoError(t, Struct(in{Name: "x"}))
	assert.Error(t, Struct(in{}))
}
