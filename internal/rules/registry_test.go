package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

func TestDefaultEnablesEveryCategory(t *testing.T) {
	reg := Default()
	assert.Len(t, reg.Active(), 12)
	for _, c := range model.Categories() {
		assert.True(t, reg.Enabled(c), string(c))
	}
}

func TestEnableSubset(t *testing.T) {
	reg := Default(model.CategorySQL, model.CategorySecrets)
	assert.True(t, reg.Enabled(model.CategorySQL))
	assert.True(t, reg.Enabled(model.CategorySecrets))
	assert.False(t, reg.Enabled(model.CategoryORM))

	var ids []string
	for _, r := range reg.Active() {
		ids = append(ids, r.ID())
	}
	assert.ElementsMatch(t, []string{
		"sql.concat-query",
		"sql.string-build",
		"secrets.named-credential",
		"secrets.long-literal",
	}, ids)
}

func TestDisabledCategoryDoesNotRun(t *testing.T) {
	src := `package main

func connect() {
	apiKey := "sk_live_abcdef0123456789xyz"
	_ = apiKey
}
`
	assert.Empty(t, analyzeSrc(t, Default(model.CategorySQL), src))
}

func TestActiveSignature(t *testing.T) {
	all := Default().ActiveSignature()
	sqlOnly := Default(model.CategorySQL).ActiveSignature()

	require.Len(t, all, 64)
	assert.NotEqual(t, all, sqlOnly)
	assert.Equal(t, all, Default().ActiveSignature())
	assert.Equal(t, sqlOnly, Default(model.CategorySQL).ActiveSignature())
}
