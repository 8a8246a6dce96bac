package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		criteria   Criteria
		want       bool
	}{
		{"all matches anything", "a/b/c.bin", All(), true},
		{"all matches empty", "", All(), true},
		{"extension hit", "a.txt", Extension(".txt"), true},
		{"extension miss", "b.log", Extension(".txt"), false},
		{"extension without dot", "reports/q1.csv", Extension("csv"), true},
		{"extension is case sensitive", "A.TXT", Extension(".txt"), false},
		{"extension needs the dot", "atxt", Extension("txt"), false},
		{"blank extension matches all", "b.log", Extension("  "), true},
		{"multi-part extension", "dump.tar.gz", Extension("tar.gz"), true},
		{"exclude hit", "script.py", SkipSourceFiles(), false},
		{"exclude miss", "report.csv", SkipSourceFiles(), true},
		{"exclude nested", "tools/gen.py", SkipSourceFiles(), false},
		{"exclude similar suffix", "notes.pyc", SkipSourceFiles(), true},
		{"both hold", "a.csv", Criteria{Extension: ".csv", ExcludeExtension: ".py"}, true},
		{"both conflict", "a.py", Criteria{Extension: ".py", ExcludeExtension: ".py"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.identifier, tt.criteria))
			assert.Equal(t, tt.want, tt.criteria.Matches(tt.identifier))
		})
	}
}

func TestMatches_Deterministic(t *testing.T) {
	c := Extension(".txt")
	for i := 0; i < 10; i++ {
		assert.True(t, Matches("x/a.txt", c))
		assert.False(t, Matches("x/a.log", c))
	}
	// only the suffix matters
	assert.Equal(t, Matches("one/a.txt", c), Matches("two/three/b.txt", c))
}

func TestCriteria_IsAll(t *testing.T) {
	assert.True(t, All().IsAll())
	assert.True(t, Extension("").IsAll())
	assert.False(t, Extension("txt").IsAll())
	assert.False(t, SkipSourceFiles().IsAll())
}

func TestCriteria_String(t *testing.T) {
	assert.Equal(t, "*", All().String())
	assert.Equal(t, "*.txt", Extension("txt").String())
	assert.Equal(t, "!*.py", SkipSourceFiles().String())
	assert.Equal(t, "*.csv !*.py", Criteria{Extension: "csv", ExcludeExtension: "py"}.String())
}
