package rules

import "github.com/deepserish-bk/db-security-scanner/internal/model"

// Default builds a registry with every built-in rule registered and the
// given categories enabled. No categories means all of them.
func Default(enabled ...model.Category) *Registry {
	r := NewRegistry()
	r.Register(concatQueryRule{})
	r.Register(stringBuildRule{})
	r.Register(namedCredentialRule{})
	r.Register(longLiteralRule{})
	r.Register(insecureDSNRule{})
	r.Register(dynamicExecRule{})
	for _, er := range engineRules() {
		r.Register(er)
	}
	r.Register(rawORMRule{})
	r.Enable(enabled...)
	return r
}
