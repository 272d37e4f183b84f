package platform_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/piewpiew/internal/platform"
	"github.com/aretw0/piewpiew/pkg/adapters/memory"
	"github.com/aretw0/piewpiew/pkg/data"
)

const schemaYAML = `
models:
  person:
    fields:
      name: {type: string, required: true, max_length: 5}
      age:  {type: integer, min: 0, max: 150}
      code: {type: string, pattern: "^[A-Z]{3}$", message: "three capitals"}
  pet:
    fields:
      name: {type: string, min_length: 2}
      weight: {type: float, min: 0}
`

func TestLoadSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), platform.SchemaFile)
	require.NoError(t, os.WriteFile(path, []byte(schemaYAML), 0644))

	schema, err := platform.LoadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"person", "pet"}, schema.Names())

	types, err := schema.Define(platform.WithAdaptor(memory.New()))
	require.NoError(t, err)
	person := types["person"]
	require.NotNil(t, person)
	assert.Equal(t, []string{"age", "code", "id", "name"}, person.FieldNames())

	m, err := person.New(nil)
	require.NoError(t, err)

	assert.Contains(t, m.Set("name", "Toolong").Error(), "no more than 5 characters")
	assert.Contains(t, m.Set("age", 151).Error(), "between 0 and 150")
	assert.Contains(t, m.Set("code", "abc").Error(), "three capitals")
	assert.NoError(t, m.Set("code", "ABC"))
	assert.ErrorIs(t, m.Validate(), data.ErrValidation, "name is required")

	pet, err := types["pet"].New(nil)
	require.NoError(t, err)
	assert.Error(t, pet.Set("name", "R"))
	assert.Error(t, pet.Set("weight", -1))
	assert.NoError(t, pet.Set("weight", 1e9))
}

func TestParseSchema_Errors(t *testing.T) {
	_, err := platform.ParseSchema([]byte("models: {}"))
	assert.Error(t, err)

	_, err = platform.ParseSchema([]byte("models: ["))
	assert.Error(t, err)

	schema, err := platform.ParseSchema([]byte("models:\n  x:\n    fields:\n      a: {type: date}\n"))
	require.NoError(t, err)
	_, err = schema.Define(platform.WithAdaptor(memory.New()))
	assert.ErrorContains(t, err, "x.a")

	schema, err = platform.ParseSchema([]byte("models:\n  x:\n    fields:\n      a: {pattern: \"(\"}\n"))
	require.NoError(t, err)
	_, err = schema.Define(platform.WithAdaptor(memory.New()))
	assert.Error(t, err)

	_, err = platform.LoadSchema(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
