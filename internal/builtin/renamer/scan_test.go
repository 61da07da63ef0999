package renamer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, nil, 0644))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "ok.txt"))
	touch(t, filepath.Join(root, "a:b.txt"))
	touch(t, filepath.Join(root, "notes."))
	touch(t, filepath.Join(root, "sub?dir", "x*y"))

	issues, err := Scan(root, DefaultIllegal, false)
	require.NoError(t, err)
	assert.Equal(t, []Issue{
		{Dir: root, Name: "a:b.txt", Target: ":"},
		{Dir: root, Name: "sub?dir", Target: "?"},
		{Dir: filepath.Join(root, "sub?dir"), Name: "x*y", Target: "*"},
	}, issues)

	issues, err = Scan(root, DefaultIllegal, true)
	require.NoError(t, err)
	require.Len(t, issues, 4)
	assert.Contains(t, issues, Issue{Dir: root, Name: "notes.", Target: TrailingPeriod})
}

func TestScan_Errors(t *testing.T) {
	root := t.TempDir()

	_, err := Scan(root, "", false)
	assert.ErrorIs(t, err, ErrInvalidSettings)

	_, err = Scan(filepath.Join(root, "missing"), DefaultIllegal, false)
	assert.Error(t, err)

	file := filepath.Join(root, "file")
	touch(t, file)
	_, err = Scan(file, DefaultIllegal, false)
	assert.Error(t, err)
}

func TestNewName(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		replacement string
		override    string
		trailing    bool
		want        string
		wantErr     error
	}{
		{name: "replacement", in: "a:b?c", replacement: "-", want: "a-b-c"},
		{name: "override wins", in: "a:b", replacement: "-", override: "_", want: "a_b"},
		{name: "override first char only", in: "a:b", replacement: "-", override: "xyz", want: "axb"},
		{name: "empty replacement removes", in: "a:b", replacement: "", want: "ab"},
		{name: "trailing trims", in: "notes..", trailing: true, want: "notes"},
		{name: "trailing with override", in: "notes.", override: "x", trailing: true, want: "notesx"},
		{name: "trailing ignores override for illegal", in: "a:b", replacement: "-", override: "_", trailing: true, want: "a-b"},
		{name: "replacement too long", in: "a:b", replacement: "--", wantErr: ErrInvalidSettings},
		{name: "nothing left", in: "...", trailing: true, wantErr: ErrEmptyName},
		{name: "unchanged", in: "clean", replacement: "-", wantErr: ErrUnchanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewName(tt.in, DefaultIllegal, tt.replacement, tt.override, tt.trailing)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a:b"))
	touch(t, filepath.Join(root, "a-c"))

	newPath, err := Apply(Issue{Dir: root, Name: "a:b"}, "a-b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a-b"), newPath)
	assert.FileExists(t, newPath)
	assert.NoFileExists(t, filepath.Join(root, "a:b"))

	touch(t, filepath.Join(root, "x:c"))
	_, err = Apply(Issue{Dir: root, Name: "x:c"}, "a-c")
	assert.ErrorIs(t, err, ErrTargetExists)
	assert.FileExists(t, filepath.Join(root, "x:c"))
}
