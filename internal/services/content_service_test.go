package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeEntry(t *testing.T, root, kind, slug, content string) {
	t.Helper()
	dir := filepath.Join(root, kind, slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create entry dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, slug+".md"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write entry: %v", err)
	}
}

func newTestContentService(t *testing.T) (*ContentService, string) {
	t.Helper()
	root := t.TempDir()
	svc, err := NewContentService(root)
	if err != nil {
		t.Fatalf("NewContentService failed: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc, root
}

func TestGetArticlesParsesFrontmatter(t *testing.T) {
	svc, root := newTestContentService(t)

	writeEntry(t, root, "articles", "hello-agents", `---
title: Hello, Agents
date: 2025-06-01
category: announcements
tags:
  - agents
  - api
summary: A short welcome.
---

# Welcome

This site is **for you**.
`)

	articles, err := svc.GetArticles("", 10)
	if err != nil {
		t.Fatalf("GetArticles failed: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}

	a := articles[0]
	if a.Title != "Hello, Agents" || a.Slug != "hello-agents" {
		t.Fatalf("unexpected article: %+v", a)
	}
	if a.Category == nil || *a.Category != "announcements" {
		t.Fatalf("category not parsed: %v", a.Category)
	}
	if len(a.Tags) != 2 {
		t.Fatalf("tags not parsed: %v", a.Tags)
	}
	if !strings.Contains(a.Content, "<strong>for you</strong>") {
		t.Fatalf("markdown not rendered: %q", a.Content)
	}
}

func TestGetArticlesSortedNewestFirst(t *testing.T) {
	svc, root := newTestContentService(t)

	writeEntry(t, root, "articles", "older", "---\ntitle: Older\ndate: 2025-01-01\n---\nbody")
	writeEntry(t, root, "articles", "newer", "---\ntitle: Newer\ndate: 2025-06-01\n---\nbody")

	articles, err := svc.GetArticles("", 10)
	if err != nil {
		t.Fatalf("GetArticles failed: %v", err)
	}
	if len(articles) != 2 || articles[0].Slug != "newer" {
		t.Fatalf("unexpected ordering: %+v", articles)
	}
}

func TestGetArticlesCategoryFilter(t *testing.T) {
	svc, root := newTestContentService(t)

	writeEntry(t, root, "articles", "one", "---\ntitle: One\ndate: 2025-01-01\ncategory: news\n---\nbody")
	writeEntry(t, root, "articles", "two", "---\ntitle: Two\ndate: 2025-02-01\ncategory: guides\n---\nbody")

	articles, err := svc.GetArticles("news", 10)
	if err != nil {
		t.Fatalf("GetArticles failed: %v", err)
	}
	if len(articles) != 1 || articles[0].Slug != "one" {
		t.Fatalf("category filter failed: %+v", articles)
	}

	// A malformed category yields an empty list, not an error.
	articles, err = svc.GetArticles("../../etc", 10)
	if err != nil {
		t.Fatalf("GetArticles failed: %v", err)
	}
	if len(articles) != 0 {
		t.Fatalf("invalid category should yield no results: %+v", articles)
	}
}

func TestGetArticleBySlug(t *testing.T) {
	svc, root := newTestContentService(t)

	writeEntry(t, root, "articles", "hello", "---\ntitle: Hello\n---\nbody")

	a, err := svc.GetArticle("hello")
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if a == nil || a.Title != "Hello" {
		t.Fatalf("unexpected article: %+v", a)
	}

	a, err = svc.GetArticle("missing")
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if a != nil {
		t.Fatalf("expected nil for unknown slug, got %+v", a)
	}

	// Traversal-shaped slugs are rejected up front.
	a, err = svc.GetArticle("../../../etc/passwd")
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if a != nil {
		t.Fatalf("expected nil for unsafe slug, got %+v", a)
	}
}

func TestGetArticleMissingFrontmatterFallsBackToSlug(t *testing.T) {
	svc, root := newTestContentService(t)

	writeEntry(t, root, "articles", "plain-entry", "Just a body, no frontmatter.")

	a, err := svc.GetArticle("plain-entry")
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if a == nil || a.Title != "plain-entry" {
		t.Fatalf("expected slug fallback title, got %+v", a)
	}
}

func TestGetProjects(t *testing.T) {
	svc, root := newTestContentService(t)

	writeEntry(t, root, "projects", "registry", `---
title: Agent Registry
date: 2025-03-01
status: active
technologies:
  - go
  - sqlite
url: https://example.com/registry
---
Project body.
`)

	projects, err := svc.GetProjects(10)
	if err != nil {
		t.Fatalf("GetProjects failed: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}
	p := projects[0]
	if p.Status == nil || *p.Status != "active" {
		t.Fatalf("status not parsed: %v", p.Status)
	}
	if len(p.Technologies) != 2 {
		t.Fatalf("technologies not parsed: %v", p.Technologies)
	}
	if p.URL == nil || *p.URL != "https://example.com/registry" {
		t.Fatalf("url not parsed: %v", p.URL)
	}
}

func TestContentMissingDirectoryServesEmpty(t *testing.T) {
	svc, err := NewContentService(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("NewContentService failed: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	articles, err := svc.GetArticles("", 10)
	if err != nil {
		t.Fatalf("GetArticles failed: %v", err)
	}
	if len(articles) != 0 {
		t.Fatalf("expected empty list, got %+v", articles)
	}
}

func TestContentSkipsUnparseableEntries(t *testing.T) {
	svc, root := newTestContentService(t)

	writeEntry(t, root, "articles", "good", "---\ntitle: Good\n---\nbody")
	writeEntry(t, root, "articles", "broken", "---\ntitle: [unclosed\n---\nbody")

	articles, err := svc.GetArticles("", 10)
	if err != nil {
		t.Fatalf("GetArticles failed: %v", err)
	}
	if len(articles) != 1 || articles[0].Slug != "good" {
		t.Fatalf("broken entry should be skipped: %+v", articles)
	}
}
