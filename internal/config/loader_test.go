package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func TestSaveYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.yaml")

	in := sample{Name: "tea", Count: 3}
	if err := SaveYAML(path, &in); err != nil {
		t.Fatal(err)
	}

	var out sample
	if err := LoadYAML(path, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}
}

func TestSaveYAMLReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.yaml")

	if err := SaveYAML(path, &sample{Name: "first"}); err != nil {
		t.Fatal(err)
	}
	if err := SaveYAML(path, &sample{Name: "second", Count: 2}); err != nil {
		t.Fatal(err)
	}

	var out sample
	if err := LoadYAML(path, &out); err != nil {
		t.Fatal(err)
	}
	if out.Name != "second" || out.Count != 2 {
		t.Fatalf("loaded %+v after overwrite", out)
	}

	// The write must land via rename; no temp files may linger.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("leftover temp file %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Fatalf("directory has %d entries, want 1", len(entries))
	}
}

func TestLoadYAMLOrDefault(t *testing.T) {
	dir := t.TempDir()

	got, err := LoadYAMLOrDefault(filepath.Join(dir, "missing.yaml"), func() *sample {
		return &sample{Name: "fallback"}
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "fallback" {
		t.Fatalf("default = %+v", got)
	}

	path := filepath.Join(dir, "present.yaml")
	if err := SaveYAML(path, &sample{Name: "stored", Count: 7}); err != nil {
		t.Fatal(err)
	}
	got, err = LoadYAMLOrDefault(path, func() *sample { return &sample{Name: "fallback"} })
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "stored" || got.Count != 7 {
		t.Fatalf("loaded = %+v", got)
	}
}

func TestLoadYAMLMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("name: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	var out sample
	if err := LoadYAML(path, &out); err == nil {
		t.Fatal("malformed yaml parsed")
	}
}
