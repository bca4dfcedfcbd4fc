package tpl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNameDeterministic(t *testing.T) {
	a := Name("MyEA", "GBPUSD", "H1", "risk=2")
	b := Name("MyEA", "GBPUSD", "H1", "risk=2")
	if a != b {
		t.Fatalf("Name not deterministic: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "tpl_") || len(a) != len("tpl_")+digestLen {
		t.Errorf("Name() = %q, want tpl_ prefix with %d hex chars", a, digestLen)
	}
}

func TestNameDiffersOnAnyInput(t *testing.T) {
	base := Name("MyEA", "GBPUSD", "H1", "risk=2")
	variants := []string{
		Name("MyEA2", "GBPUSD", "H1", "risk=2"),
		Name("MyEA", "EURUSD", "H1", "risk=2"),
		Name("MyEA", "GBPUSD", "M5", "risk=2"),
		Name("MyEA", "GBPUSD", "H1", "risk=3"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d produced the same digest %q", i, v)
		}
	}
}

const sampleTemplate = `<chart>
symbol=GBPUSD
period=60
<expert>
name=Experts\Signals\MyEA
flags=343
<inputs>
risk=2
</inputs>
</expert>
</chart>
`

func TestHasExpert(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		candidates []string
		want       bool
	}{
		{
			name:       "basename match",
			content:    sampleTemplate,
			candidates: []string{"MyEA"},
			want:       true,
		},
		{
			name:       "full relative name match",
			content:    sampleTemplate,
			candidates: []string{`Experts\Signals\MyEA`},
			want:       true,
		},
		{
			name:       "case-insensitive match",
			content:    sampleTemplate,
			candidates: []string{"myea"},
			want:       true,
		},
		{
			name:       "extension is ignored",
			content:    sampleTemplate,
			candidates: []string{"MyEA.ex5"},
			want:       true,
		},
		{
			name:       "different EA",
			content:    sampleTemplate,
			candidates: []string{"OtherEA"},
			want:       false,
		},
		{
			name:       "no expert block",
			content:    "<chart>\nsymbol=GBPUSD\n</chart>\n",
			candidates: []string{"MyEA"},
			want:       false,
		},
		{
			name:       "name outside expert block does not count",
			content:    "<chart>\nname=MyEA\n</chart>\n",
			candidates: []string{"MyEA"},
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasExpert([]byte(tt.content), tt.candidates...); got != tt.want {
				t.Errorf("HasExpert(%v) = %v, want %v", tt.candidates, got, tt.want)
			}
		})
	}
}

func TestMaterialize(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "Default.tpl")
	if err := os.WriteFile(basePath, []byte("<chart>\nsymbol=EURUSD\n</chart>\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "out", "tpl_abc.tpl")
	missing := filepath.Join(dir, "nope.tpl")
	if err := Materialize(dest, []string{missing, basePath}, "MyEA", "risk=2;lots=0.1"); err != nil {
		t.Fatalf("Materialize() error: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !HasExpert(data, "MyEA") {
		t.Errorf("materialized template does not contain expert block:\n%s", data)
	}
	content := string(data)
	if !strings.Contains(content, "risk=2\n") || !strings.Contains(content, "lots=0.1\n") {
		t.Errorf("materialized template missing inputs:\n%s", content)
	}
	// The block must land inside the chart element.
	if strings.Index(content, "<expert>") > strings.Index(content, "</chart>") {
		t.Errorf("expert block written outside </chart>:\n%s", content)
	}
}

func TestMaterializeNoBaseFound(t *testing.T) {
	dir := t.TempDir()
	err := Materialize(filepath.Join(dir, "out.tpl"), FallbackCandidates(dir), "MyEA", "")
	if err == nil {
		t.Fatal("Materialize() with no existing base = nil error, want failure")
	}
}
