package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docrag/internal/adapter/fs"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestLoader(root string) *Loader {
	return NewLoader(root, "", fs.NewWalker([]string{"**/*.md"}, nil), nil)
}

func TestLoadDataset(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "guide", "intro.md"), "Welcome to the guide.\n")
	writeFile(t, filepath.Join(root, "guide", "setup.md"), `---
id: custom-setup
title: Setup
tags: [install]
---
Install the binary.
---
Configure the data directory.
`)
	writeFile(t, filepath.Join(root, "guide", "notes.txt"), "not markdown")
	writeFile(t, filepath.Join(root, "other", "stray.md"), "different dataset")

	docs, err := newTestLoader(root).Load(context.Background(), "guide")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(docs) != 3 {
		t.Fatalf("got %d documents, want 3: %+v", len(docs), docs)
	}
	if docs[0].ID != "guide/intro" || docs[0].Text != "Welcome to the guide." {
		t.Errorf("doc 0 = %+v", docs[0])
	}
	if docs[1].ID != "guide/custom-setup#0" || docs[1].Text != "Install the binary." {
		t.Errorf("doc 1 = %+v", docs[1])
	}
	if docs[2].ID != "guide/custom-setup#1" || docs[2].Text != "Configure the data directory." {
		t.Errorf("doc 2 = %+v", docs[2])
	}
}

func TestLoadSkipsEmptySections(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ds", "a.md"), "First section.\n---\n\n---\nSecond section.\n")
	writeFile(t, filepath.Join(root, "ds", "empty.md"), "\n\n")

	docs, err := newTestLoader(root).Load(context.Background(), "ds")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2: %+v", len(docs), docs)
	}
	if docs[0].ID != "ds/a#0" || docs[1].ID != "ds/a#1" {
		t.Errorf("ordinals not dense: %s, %s", docs[0].ID, docs[1].ID)
	}
}

func TestLoadUnclosedFrontMatter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ds", "bad.md"), "---\nid: never-closed\nStill the body.")

	docs, err := newTestLoader(root).Load(context.Background(), "ds")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
	if !strings.HasPrefix(docs[0].ID, "ds/bad") {
		t.Errorf("unclosed fence must not supply an id, got %s", docs[0].ID)
	}
	if !strings.Contains(docs[0].Text, "Still the body.") {
		t.Errorf("body lost: %q", docs[0].Text)
	}
}

func TestLoadMissingDataset(t *testing.T) {
	if _, err := newTestLoader(t.TempDir()).Load(context.Background(), "nope"); err == nil {
		t.Error("expected error for missing dataset directory")
	}
}

func TestLoadRejectsPathLikeIDs(t *testing.T) {
	loader := newTestLoader(t.TempDir())
	for _, id := range []string{"", "..", "a/b", "../escape"} {
		if _, err := loader.Load(context.Background(), id); err == nil {
			t.Errorf("dataset id %q must be rejected", id)
		}
	}
}

func TestLoadCustomSeparator(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ds", "a.md"), "One.\n===\nTwo.\n---\nStill two.")

	loader := NewLoader(root, "===", fs.NewWalker([]string{"**/*.md"}, nil), nil)
	docs, err := loader.Load(context.Background(), "ds")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if !strings.Contains(docs[1].Text, "---") {
		t.Error("default separator must not apply when overridden")
	}
}
