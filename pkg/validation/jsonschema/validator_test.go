package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formstate/pkg/path"
	"github.com/goliatone/go-formstate/pkg/tree"
	"github.com/goliatone/go-formstate/pkg/validation"
)

const profileSchema = `{
  "type": "object",
  "properties": {
    "a": {
      "type": "object",
      "properties": {
        "b": {
          "type": "object",
          "properties": {
            "c": {"type": "string", "minLength": 1}
          }
        }
      }
    },
    "numbers": {
      "type": "array",
      "items": {"type": "number", "minimum": 0}
    }
  }
}`

func TestValidatorReportsLeafPaths(t *testing.T) {
	v, err := Compile(profileSchema)
	require.NoError(t, err)

	root := tree.MustFrom(map[string]any{
		"a":       map[string]any{"b": map[string]any{"c": ""}},
		"numbers": []any{1, -2},
	})

	result, err := v.Validate(root)
	require.NoError(t, err)
	require.Len(t, result, 2)

	engine := validation.NewEngine(v)
	engine.Run(root)
	assert.Len(t, engine.ErrorsForPath(path.MustParse("a.b.c")), 1)
	assert.Len(t, engine.ErrorsForPath(path.MustParse("numbers.1")), 1)
	assert.Empty(t, engine.ErrorsForPath(path.MustParse("numbers.0")))
	assert.Len(t, engine.ErrorsForPath(path.MustParse("a")), 1)
}

func TestValidatorAcceptsValidTree(t *testing.T) {
	v := MustCompile(profileSchema)
	root := tree.MustFrom(map[string]any{
		"a":       map[string]any{"b": map[string]any{"c": "filled"}},
		"numbers": []any{0, 4},
	})

	result, err := v.Validate(root)
	require.NoError(t, err)
	assert.True(t, result.Valid())
}

func TestValidatorCustomMessage(t *testing.T) {
	v := MustCompile(profileSchema, WithMessage("a.b.c", "c is required"))
	root := tree.MustFrom(map[string]any{"a": map[string]any{"b": map[string]any{"c": ""}}})

	result, err := v.Validate(root)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "c is required", result[0].Message)
	assert.True(t, result[0].Path.Equal(path.MustParse("a.b.c")))
}

func TestCompileRejectsInvalidDocument(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation:")
}
