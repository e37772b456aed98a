package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darmiel/callsign/internal/core"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name    string
		rules   []Rule
		wantErr string
	}{
		{name: "Empty", rules: nil},
		{name: "Valid", rules: []Rule{{Name: "a", Expr: `principal.ID != ""`}}},
		{name: "Missing Name", rules: []Rule{{Expr: "true"}}, wantErr: "missing name"},
		{name: "Missing Expr", rules: []Rule{{Name: "a"}}, wantErr: "missing expr"},
		{
			name:    "Duplicate Name",
			rules:   []Rule{{Name: "a", Expr: "true"}, {Name: "a", Expr: "true"}},
			wantErr: "not unique",
		},
		{name: "Syntax Error", rules: []Rule{{Name: "a", Expr: "principal.ID =="}}, wantErr: "compiling expr"},
		{name: "Not Boolean", rules: []Rule{{Name: "a", Expr: "principal.ID"}}, wantErr: "compiling expr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Compile(tt.rules)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.rules), a.Len())
		})
	}
}

func TestEvaluate(t *testing.T) {
	admission, err := Compile([]Rule{
		{
			Name: "internal-domain",
			Expr: `principal.Attributes["email"] endsWith "@example.com"`,
		},
		{
			Name:   "jwt-only-verified",
			Issuer: "jwt",
			Expr:   `principal.Attributes["email_verified"] == true`,
		},
	})
	require.NoError(t, err)

	tests := []struct {
		name      string
		principal *core.Principal
		wantRule  string
	}{
		{
			name: "Admitted",
			principal: &core.Principal{ID: "1", Issuer: "remote", Attributes: map[string]any{
				"email": "a@example.com",
			}},
		},
		{
			name: "Wrong Domain",
			principal: &core.Principal{ID: "1", Issuer: "remote", Attributes: map[string]any{
				"email": "a@other.com",
			}},
			wantRule: "internal-domain",
		},
		{
			name: "Issuer Scoped Rule",
			principal: &core.Principal{ID: "1", Issuer: "jwt", Attributes: map[string]any{
				"email":          "a@example.com",
				"email_verified": false,
			}},
			wantRule: "jwt-only-verified",
		},
		{
			name: "Issuer Scoped Rule Passes",
			principal: &core.Principal{ID: "1", Issuer: "jwt", Attributes: map[string]any{
				"email":          "a@example.com",
				"email_verified": true,
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := admission.Evaluate(tt.principal)
			if tt.wantRule == "" {
				assert.NoError(t, err)
				assert.Empty(t, rule)
				return
			}
			assert.ErrorIs(t, err, ErrDenied)
			assert.Equal(t, tt.wantRule, rule)
		})
	}
}

func TestEvaluate_NilAdmission(t *testing.T) {
	var a *Admission
	rule, err := a.Evaluate(&core.Principal{ID: "1"})
	assert.NoError(t, err)
	assert.Empty(t, rule)
	assert.Equal(t, 0, a.Len())
}
