package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingManifestYieldsEmptySets(t *testing.T) {
	dir := t.TempDir()
	c := New(filepath.Join(dir, "manifest.toml"))

	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := c.JDKClasses(); got != nil {
		t.Fatalf("expected nil JDK classes, got %v", got)
	}
}

func TestLoad_ParsesManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.toml")
	content := `
jdk_classes = ["java.lang.String", "java.util.List"]
classpath_classes = ["com.acme.Widget"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(path)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	jdk := c.JDKClasses()
	if len(jdk) != 2 || jdk[0] != "java.lang.String" {
		t.Fatalf("got %v", jdk)
	}
	cp := c.ClassPathClasses()
	if len(cp) != 1 || cp[0] != "com.acme.Widget" {
		t.Fatalf("got %v", cp)
	}
}

func TestSourcepathIndex_ScanRespectsPublicAndPackageVisibility(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("com/acme/Public.java", "package com.acme;\npublic class Public {}\n")
	write("com/acme/Hidden.java", "package com.acme;\nclass Hidden {}\n")
	write("com/other/Other.java", "package com.other;\npublic class Other {}\n")

	idx := NewSourcepathIndex()
	if err := idx.Scan(context.Background(), []string{dir}); err != nil {
		t.Fatal(err)
	}

	visibleFromOther := idx.PublicClasses("com.other")
	foundPublic, foundHidden := false, false
	for _, c := range visibleFromOther {
		if c == "com.acme.Public" {
			foundPublic = true
		}
		if c == "com.acme.Hidden" {
			foundHidden = true
		}
	}
	if !foundPublic {
		t.Fatalf("expected com.acme.Public visible from com.other, got %v", visibleFromOther)
	}
	if foundHidden {
		t.Fatalf("expected com.acme.Hidden (package-private) excluded, got %v", visibleFromOther)
	}

	samePackage := idx.SamePackageClasses("com.acme")
	foundHiddenSamePkg := false
	for _, c := range samePackage {
		if c == "com.acme.Hidden" {
			foundHiddenSamePkg = true
		}
	}
	if !foundHiddenSamePkg {
		t.Fatalf("expected com.acme.Hidden visible from its own package, got %v", samePackage)
	}
}
