// FILE: lixenwraith/presets/apply_test.go
package presets

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func presetsOf(contents ...map[string]any) *Presets {
	list := make([]LoadedPreset, len(contents))
	for i, c := range contents {
		list[i] = LoadedPreset{Name: string(rune('A' + i)), Preset: c, Options: map[string]any{}}
	}
	return NewPresets(list, &HostOptions{ConfigDir: "/config"})
}

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyListReturnsSeed", func(t *testing.T) {
		seed := map[string]any{"a": 1}
		result, err := NewPresets(nil, nil).Apply(ctx, "ext", seed, nil)
		require.NoError(t, err)
		assert.Equal(t, seed, result)
	})

	t.Run("NoContributionsReturnsSeed", func(t *testing.T) {
		result, err := presetsOf(map[string]any{"other": 1}, map[string]any{"ext": nil}).Apply(ctx, "ext", "seed", nil)
		require.NoError(t, err)
		assert.Equal(t, "seed", result)
	})

	t.Run("ConcatenatesSequences", func(t *testing.T) {
		p := presetsOf(map[string]any{"ext": []any{1}}, map[string]any{"ext": []any{2}})
		result, err := p.Apply(ctx, "ext", []any{}, nil)
		require.NoError(t, err)
		assert.Equal(t, []any{1, 2}, result)
	})

	t.Run("ShallowMergesMaps", func(t *testing.T) {
		p := presetsOf(map[string]any{"ext": map[string]any{"a": 1}}, map[string]any{"ext": map[string]any{"a": 2, "b": 3}})
		result, err := p.Apply(ctx, "ext", map[string]any{}, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 2, "b": 3}, result)
	})

	t.Run("FalsyValuesApply", func(t *testing.T) {
		p := presetsOf(map[string]any{"ext": true}, map[string]any{"ext": false})
		result, err := p.Apply(ctx, "ext", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, false, result)
	})

	t.Run("FunctionSeesEarlierPresetsOnly", func(t *testing.T) {
		var seen []any
		record := ExtensionFunc(func(_ context.Context, acc any, _ *ExtensionContext) (any, error) {
			seen = append(seen, acc)
			return append(acc.([]any), "fn"), nil
		})
		p := presetsOf(
			map[string]any{"ext": []any{1}},
			map[string]any{"ext": record},
			map[string]any{"ext": []any{2}},
		)
		result, err := p.Apply(ctx, "ext", []any{0}, nil)
		require.NoError(t, err)
		assert.Equal(t, []any{[]any{0, 1}}, seen)
		assert.Equal(t, []any{0, 1, "fn", 2}, result)
	})

	t.Run("FunctionShapes", func(t *testing.T) {
		p := presetsOf(
			map[string]any{"ext": func(acc any) (any, error) { return acc.(int) + 1, nil }},
			map[string]any{"ext": func(acc any, x *ExtensionContext) (any, error) { return acc.(int) * 10, nil }},
			map[string]any{"ext": func(_ context.Context, acc any, _ *ExtensionContext) (any, error) {
				return Defer(func() (any, error) { return acc.(int) + 5, nil }), nil
			}},
		)
		result, err := p.Apply(ctx, "ext", 1, nil)
		require.NoError(t, err)
		assert.Equal(t, 25, result)

		t.Run("UnsupportedSignature", func(t *testing.T) {
			p := presetsOf(map[string]any{"ext": func(acc any) any { return "called" }})
			_, err := p.Apply(ctx, "ext", "seed", nil)
			require.ErrorIs(t, err, ErrUnsupportedExtension)
			assert.Contains(t, err.Error(), `extension "ext" of preset "A"`)
			assert.Contains(t, err.Error(), "func(interface {}) interface {}")
		})

		t.Run("NilFunctionSkipped", func(t *testing.T) {
			var fn func(any) any
			p := presetsOf(map[string]any{"ext": fn})
			result, err := p.Apply(ctx, "ext", "seed", nil)
			require.NoError(t, err)
			assert.Equal(t, "seed", result)
		})
	})

	t.Run("FunctionErrorAborts", func(t *testing.T) {
		boom := errors.New("boom")
		p := presetsOf(
			map[string]any{"ext": func(any) (any, error) { return nil, boom }},
			map[string]any{"ext": []any{1}},
		)
		_, err := p.Apply(ctx, "ext", []any{}, nil)
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), `extension "ext" of preset "A" failed`)
	})

	t.Run("CombinedOptions", func(t *testing.T) {
		var options map[string]any
		list := []LoadedPreset{{
			Name:    "p",
			Options: map[string]any{"shared": "preset", "own": 1},
			Preset: map[string]any{"ext": ExtensionFunc(func(_ context.Context, acc any, x *ExtensionContext) (any, error) {
				options = x.Options
				assert.Equal(t, "ext", x.Key)
				assert.Equal(t, "p", x.Preset)
				assert.Len(t, x.Presets, 1)
				return acc, nil
			})},
		}}
		p := NewPresets(list, &HostOptions{ConfigDir: "/config", Values: map[string]any{"shared": "host", "mode": "dev"}})
		_, err := p.Apply(ctx, "ext", nil, map[string]any{"shared": "args", "arg": true})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"configDir": "/config",
			"mode":      "dev",
			"arg":       true,
			"shared":    "preset",
			"own":       1,
		}, options)
	})

	t.Run("ReentrantApply", func(t *testing.T) {
		p := presetsOf(
			map[string]any{"framework": "react"},
			map[string]any{"ext": ExtensionFunc(func(ctx context.Context, acc any, x *ExtensionContext) (any, error) {
				framework, err := x.Apply(ctx, "framework", nil, nil)
				if err != nil {
					return nil, err
				}
				out := acc.(map[string]any)
				out["framework"] = framework
				return out, nil
			})},
		)
		result, err := p.Apply(ctx, "ext", map[string]any{}, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"framework": "react"}, result)
	})

	t.Run("LoadedPresetsAreNotMutated", func(t *testing.T) {
		contribution := map[string]any{"a": 1}
		p := presetsOf(
			map[string]any{"ext": contribution},
			map[string]any{"ext": ExtensionFunc(func(_ context.Context, acc any, _ *ExtensionContext) (any, error) {
				acc.(map[string]any)["mutated"] = true
				return acc, nil
			})},
		)
		// A nil seed makes the first contribution replace the accumulator
		_, err := p.Apply(ctx, "ext", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1}, contribution)

		again, err := p.Apply(ctx, "ext", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1, "mutated": true}, again)

		t.Run("StructPointer", func(t *testing.T) {
			type counter struct{ N int }
			loaded := &counter{N: 1}
			p := presetsOf(
				map[string]any{"ext": loaded},
				map[string]any{"ext": ExtensionFunc(func(_ context.Context, acc any, _ *ExtensionContext) (any, error) {
					acc.(*counter).N++
					return acc, nil
				})},
			)

			first, err := p.Apply(ctx, "ext", nil, nil)
			require.NoError(t, err)
			second, err := p.Apply(ctx, "ext", nil, nil)
			require.NoError(t, err)

			assert.Equal(t, &counter{N: 2}, first)
			assert.Equal(t, &counter{N: 2}, second)
			assert.NotSame(t, first, second)
			assert.Equal(t, 1, loaded.N)
		})
	})

	t.Run("CanceledContext", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		p := presetsOf(map[string]any{"ext": func(any) (any, error) {
			return Defer(func() (any, error) {
				time.Sleep(time.Second)
				return nil, nil
			}), nil
		}})
		_, err := p.Apply(canceled, "ext", nil, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWellKnownExtensions(t *testing.T) {
	ctx := context.Background()
	p := presetsOf(
		map[string]any{
			ExtManagerEntries:     []any{"/a/manager.js"},
			ExtPreviewAnnotations: []any{PreviewAnnotation{Bare: "a/preview", Absolute: "/a/preview.js"}},
		},
		map[string]any{
			ExtManagerEntries:     []string{"/b/manager.js"},
			ExtPreviewAnnotations: []any{"b/preview", map[string]any{"bare": "c/preview", "absolute": "/c/preview.js"}},
		},
	)

	entries, err := p.ManagerEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a/manager.js", "/b/manager.js"}, entries)

	annotations, err := p.PreviewAnnotations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []PreviewAnnotation{
		{Bare: "a/preview", Absolute: "/a/preview.js"},
		{Bare: "b/preview"},
		{Bare: "c/preview", Absolute: "/c/preview.js"},
	}, annotations)

	t.Run("InvalidEntries", func(t *testing.T) {
		bad := presetsOf(map[string]any{ExtManagerEntries: []any{42}})
		_, err := bad.ManagerEntries(ctx)
		assert.Error(t, err)

		bad = presetsOf(map[string]any{ExtManagerEntries: "not-a-list"})
		_, err = bad.ManagerEntries(ctx)
		assert.Error(t, err)
	})
}

func TestApplyInto(t *testing.T) {
	ctx := context.Background()

	type devServer struct {
		Host    string        `preset:"host"`
		Port    int           `preset:"port"`
		Timeout time.Duration `preset:"timeout"`
		Origin  *url.URL      `preset:"origin"`
		Tags    []string      `preset:"tags"`
	}

	p := presetsOf(
		map[string]any{"devServer": map[string]any{"host": "localhost", "port": "6006"}},
		map[string]any{"devServer": map[string]any{"timeout": "30s", "origin": "http://localhost:6006", "tags": "a,b"}},
	)

	var server devServer
	require.NoError(t, p.ApplyInto(ctx, "devServer", map[string]any{}, nil, &server))
	assert.Equal(t, "localhost", server.Host)
	assert.Equal(t, 6006, server.Port)
	assert.Equal(t, 30*time.Second, server.Timeout)
	require.NotNil(t, server.Origin)
	assert.Equal(t, "localhost:6006", server.Origin.Host)
	assert.Equal(t, []string{"a", "b"}, server.Tags)

	assert.Error(t, p.ApplyInto(ctx, "devServer", nil, nil, server), "non-pointer target")
}

func TestExtensionContextAccessors(t *testing.T) {
	x := &ExtensionContext{Preset: "p", Options: map[string]any{
		"name":     "storybook",
		"port":     float64(6006),
		"enabled":  "true",
		"ratio":    "0.5",
		"nothing":  nil,
		"nested":   map[string]any{"deep": 1},
		"fraction": 1.7,
		"huge":     1e30,
		"whole":    "42.0",
	}}

	s, err := x.String("name")
	require.NoError(t, err)
	assert.Equal(t, "storybook", s)

	s, err = x.String("port")
	require.NoError(t, err)
	assert.Equal(t, "6006", s)

	n, err := x.Int64("port")
	require.NoError(t, err)
	assert.Equal(t, int64(6006), n)

	n, err = x.Int64("whole")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = x.Int64("fraction")
	assert.Error(t, err, "non-integral floats are rejected")
	_, err = x.Int64("huge")
	assert.Error(t, err, "out of range floats are rejected")

	b, err := x.Bool("enabled")
	require.NoError(t, err)
	assert.True(t, b)

	f, err := x.Float64("ratio")
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)

	_, err = x.String("missing")
	assert.Error(t, err)
	_, err = x.Int64("nothing")
	assert.Error(t, err)
	_, err = x.String("nested")
	assert.Error(t, err)

	var target struct {
		Name string `preset:"name"`
		Port int    `preset:"port"`
	}
	require.NoError(t, x.Decode(&target))
	assert.Equal(t, "storybook", target.Name)
	assert.Equal(t, 6006, target.Port)
}
