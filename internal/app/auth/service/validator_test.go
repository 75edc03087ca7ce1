package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStrongPassword(t *testing.T) {
	for pwd, want := range map[string]bool{
		"Secret123":               true,
		"Aa1aaaaa":                true,
		"Aa1aaaa":                 false,
		"secret123":               false,
		"SECRET123":               false,
		"SecretSecret":            false,
		"Aa1" + strings.Repeat("a", 97): true,
		"Aa1" + strings.Repeat("a", 98): false,
	} {
		require.Equal(t, want, strongPassword(pwd), pwd)
	}
}

func TestValidator_Describe(t *testing.T) {
	v := NewValidator()
	type in struct {
		Username string `json:"username" validate:"required,username"`
		Body     string `json:"body" validate:"notblank,max=5"`
	}

	err := v.Struct(in{Username: "a!", Body: "   "})
	require.Error(t, err)
	msg := Describe(err)
	require.Contains(t, msg, "username: must be 3-50 characters")
	require.Contains(t, msg, "body: must not be blank")

	err = v.Struct(in{Username: "good_name-1", Body: "toolong"})
	require.Equal(t, "body: must not exceed 5 characters", Describe(err))
}
