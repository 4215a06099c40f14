package tmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/proofgridgo/internal/apperrors"
)

func TestRender(t *testing.T) {
	t.Run("replaces every occurrence of every placeholder", func(t *testing.T) {
		text := "[options]\nread {{unit}}.il\nworkdir {{outdir}}\nprove {{unit}}\n"
		out, err := Render("foo", text, map[string]string{
			"unit":   "foo",
			"outdir": "/out/foo",
		})
		require.NoError(t, err)
		assert.Equal(t, "[options]\nread foo.il\nworkdir /out/foo\nprove foo\n", out)
		assert.NotContains(t, out, "{{")
	})

	t.Run("text without placeholders is unchanged", func(t *testing.T) {
		out, err := Render("foo", "plain text", map[string]string{"unit": "foo"})
		require.NoError(t, err)
		assert.Equal(t, "plain text", out)
	})

	t.Run("unresolved placeholder is a template error", func(t *testing.T) {
		_, err := Render("foo", "read {{unit}}.il via {{mystery}}", map[string]string{"unit": "foo"})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrTemplate)
		assert.ErrorContains(t, err, "{{mystery}}")
	})

	t.Run("substitutions may introduce literal braces safely", func(t *testing.T) {
		// A value containing something placeholder-ish must not be
		// reported as unresolved unless it matches the token syntax.
		out, err := Render("foo", "echo {{unit}}", map[string]string{"unit": "{braces}"})
		require.NoError(t, err)
		assert.Equal(t, "echo {braces}", out)
	})
}

func TestRenderArgs(t *testing.T) {
	t.Run("renders each element", func(t *testing.T) {
		args, err := RenderArgs("add", []string{"--insn", "{{unit}}", "-o", "{{outdir}}"}, map[string]string{
			"unit":   "add",
			"outdir": "/out/add",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"--insn", "add", "-o", "/out/add"}, args)
	})

	t.Run("propagates template errors", func(t *testing.T) {
		_, err := RenderArgs("add", []string{"{{unknown}}"}, nil)
		assert.ErrorIs(t, err, apperrors.ErrTemplate)
	})

	t.Run("empty argument vector", func(t *testing.T) {
		args, err := RenderArgs("add", nil, nil)
		require.NoError(t, err)
		assert.Empty(t, args)
	})
}
