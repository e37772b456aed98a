// Package policy evaluates operator defined admission rules against verified
// principals before a credential is signed.
package policy

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/callsign/internal/core"
)

var ErrDenied = errors.New("principal denied by admission policy")

// Rule is a single admission requirement.
type Rule struct {
	// Name is a human-readable identifier for logs/debugging.
	Name string `yaml:"name" json:"name"`

	// Description explains the intent of the rule.
	Description string `yaml:"description" json:"description"`

	// Issuer restricts the rule to principals verified by this issuer.
	// Empty applies the rule to every principal.
	Issuer string `yaml:"issuer" json:"issuer"`

	// Expr must evaluate to true for the principal to be admitted.
	// The environment exposes `principal` (core.Principal).
	Expr string `yaml:"expr" json:"expr"`

	program *vm.Program
}

// Admission holds compiled rules. All applicable rules must pass.
type Admission struct {
	rules []Rule
}

// Compile validates and compiles rules.
func Compile(rules []Rule) (*Admission, error) {
	seen := make(map[string]struct{}, len(rules))
	compiled := make([]Rule, 0, len(rules))

	for i, rule := range rules {
		if rule.Name == "" {
			return nil, fmt.Errorf("admission rule #%d missing name", i)
		}
		if _, exists := seen[rule.Name]; exists {
			return nil, fmt.Errorf("admission rule name '%s' is not unique", rule.Name)
		}
		seen[rule.Name] = struct{}{}

		if rule.Expr == "" {
			return nil, fmt.Errorf("admission rule '%s' missing expr", rule.Name)
		}
		program, err := expr.Compile(rule.Expr,
			expr.Env(map[string]any{"principal": &core.Principal{}}),
			expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compiling expr for admission rule '%s': %w", rule.Name, err)
		}
		rule.program = program
		compiled = append(compiled, rule)
	}

	return &Admission{rules: compiled}, nil
}

// Len returns the number of compiled rules.
func (a *Admission) Len() int {
	if a == nil {
		return 0
	}
	return len(a.rules)
}

// Evaluate runs every applicable rule against principal. It returns the name
// of the first rule that did not pass together with ErrDenied, or the
// evaluation error of a broken rule.
func (a *Admission) Evaluate(principal *core.Principal) (string, error) {
	if a == nil {
		return "", nil
	}
	for _, rule := range a.rules {
		if rule.Issuer != "" && rule.Issuer != principal.Issuer {
			continue
		}
		out, err := expr.Run(rule.program, map[string]any{
			"principal": principal,
		})
		if err != nil {
			log.Warn().Err(err).Msgf("error evaluating admission rule '%s'", rule.Name)
			return rule.Name, fmt.Errorf("%w: %v", ErrDenied, err)
		}
		if ok, _ := out.(bool); !ok {
			return rule.Name, ErrDenied
		}
	}
	return "", nil
}
