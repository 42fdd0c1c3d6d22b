package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string   `json:"name"`
	Pages   int      `json:"pages"`
	Targets []string `json:"targets"`
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, "dir/app.local.json5", LocalPath("dir/app.json5"))
	require.Equal(t, "app.local", LocalPath("app"))
}

func TestReadConfig(t *testing.T) {
	cases := []struct {
		name     string
		base     string
		local    string
		expected testConfig
		missing  bool
	}{
		{
			name: "base only",
			base: `{name: "pink door", pages: 3, // comment
				targets: ["a"]}`,
			expected: testConfig{Name: "pink door", Pages: 3, Targets: []string{"a"}},
		},
		{
			name:     "local overrides base",
			base:     `{name: "pink door", pages: 3}`,
			local:    `{pages: 5, targets: ["b", "c"]}`,
			expected: testConfig{Name: "pink door", Pages: 5, Targets: []string{"b", "c"}},
		},
		{
			name:     "explicit zero replaces the current value",
			base:     `{name: "pink door", pages: 3}`,
			local:    `{pages: 0}`,
			expected: testConfig{Name: "pink door", Pages: 0, Targets: []string{"default"}},
		},
		{
			name:     "local only",
			local:    `{name: "local"}`,
			expected: testConfig{Name: "local", Targets: []string{"default"}},
		},
		{
			name:    "no files",
			missing: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dir := t.TempDir()
			name := filepath.Join(dir, "app.json5")
			if c.base != "" {
				require.NoError(t, os.WriteFile(name, []byte(c.base), 0600))
			}
			if c.local != "" {
				require.NoError(t, os.WriteFile(LocalPath(name), []byte(c.local), 0600))
			}

			config := testConfig{Targets: []string{"default"}}
			err := ReadConfig(name, &config)
			if c.missing {
				require.ErrorIs(t, err, os.ErrNotExist)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(c.expected, config); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestReadConfigInvalid(t *testing.T) {
	name := filepath.Join(t.TempDir(), "app.json5")
	require.NoError(t, os.WriteFile(name, []byte(`{name: `), 0600))

	var config testConfig
	err := ReadConfig(name, &config)
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.json5"), []byte(`{pages: 7}`), 0600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { os.Chdir(wd) })

	var config testConfig
	err = ReadRecursively("app.json5", &config)
	require.NoError(t, err)
	require.Equal(t, 7, config.Pages)
}
