package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"graysky/internal/models"
)

const contentCacheTTL = 5 * time.Minute

// Directories that never hold content entries.
var skipDirs = map[string]bool{
	"all":          true,
	"categories":   true,
	".git":         true,
	"node_modules": true,
}

// contentFrontmatter is the YAML frontmatter of an article or project page.
type contentFrontmatter struct {
	Title        string   `yaml:"title"`
	Date         string   `yaml:"date"`
	Category     *string  `yaml:"category"`
	Tags         []string `yaml:"tags"`
	Summary      *string  `yaml:"summary"`
	Status       *string  `yaml:"status"`
	Technologies []string `yaml:"technologies"`
	URL          *string  `yaml:"url"`
}

// ContentService reads markdown content (articles and projects) from disk,
// renders it to HTML, and caches the parsed results. A filesystem watcher
// flushes the cache when content changes, so edits show up without a restart.
type ContentService struct {
	contentDir   string
	articlesPath string
	projectsPath string

	cache   *gocache.Cache
	md      goldmark.Markdown
	watcher *fsnotify.Watcher
}

// NewContentService creates a content loader rooted at contentDir. A missing
// content tree is not fatal: listings degrade to empty until content appears.
func NewContentService(contentDir string) (*ContentService, error) {
	abs, err := filepath.Abs(contentDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve content dir: %w", err)
	}

	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		logrus.WithField("content_dir", abs).Warn("content directory not found, serving empty content")
	}

	return &ContentService{
		contentDir:   abs,
		articlesPath: filepath.Join(abs, "articles"),
		projectsPath: filepath.Join(abs, "projects"),
		cache:        gocache.New(contentCacheTTL, 10*time.Minute),
		md:           goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

// Watch starts a filesystem watcher that flushes the parse cache whenever
// the content tree changes. Call Close to stop it.
func (s *ContentService) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create content watcher: %w", err)
	}
	s.watcher = watcher

	for _, root := range []string{s.articlesPath, s.projectsPath} {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		if err := watcher.Add(root); err != nil {
			logrus.WithError(err).WithField("path", root).Warn("failed to watch content path")
			continue
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() && !skipDirs[entry.Name()] && !strings.HasPrefix(entry.Name(), ".") {
				_ = watcher.Add(filepath.Join(root, entry.Name()))
			}
		}
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				logrus.WithField("file", event.Name).Debug("content changed, flushing cache")
				s.cache.Flush()
				// New entry directories need their own watch.
				if event.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.WithError(err).Warn("content watcher error")
			}
		}
	}()

	return nil
}

// Close stops the content watcher if one is running.
func (s *ContentService) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// GetArticles returns articles sorted newest first, optionally filtered by
// category. The limit is clamped into [1, 50]. An invalid category yields an
// empty list rather than an error.
func (s *ContentService) GetArticles(category string, limit int) ([]models.Article, error) {
	limit = min(max(1, limit), 50)

	if category != "" && !isValidCategory(category) {
		logrus.WithField("category", category).Warn("invalid category format")
		return []models.Article{}, nil
	}

	articles, err := s.loadArticles()
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if category != "" && (a.Category == nil || *a.Category != category) {
			continue
		}
		filtered = append(filtered, a)
	}

	if limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// GetArticle returns a single article by slug, or nil when it does not exist.
func (s *ContentService) GetArticle(slug string) (*models.Article, error) {
	if !isValidSlug(slug) {
		logrus.WithField("slug", slug).Warn("invalid article slug")
		return nil, nil
	}

	articles, err := s.loadArticles()
	if err != nil {
		return nil, err
	}
	for i := range articles {
		if articles[i].Slug == slug {
			return &articles[i], nil
		}
	}
	return nil, nil
}

// GetProjects returns projects sorted newest first, limit clamped to [1, 50].
func (s *ContentService) GetProjects(limit int) ([]models.Project, error) {
	limit = min(max(1, limit), 50)

	projects, err := s.loadProjects()
	if err != nil {
		return nil, err
	}
	if limit < len(projects) {
		projects = projects[:limit]
	}
	return projects, nil
}

// GetProject returns a single project by slug, or nil when it does not exist.
func (s *ContentService) GetProject(slug string) (*models.Project, error) {
	if !isValidSlug(slug) {
		logrus.WithField("slug", slug).Warn("invalid project slug")
		return nil, nil
	}

	projects, err := s.loadProjects()
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Slug == slug {
			return &projects[i], nil
		}
	}
	return nil, nil
}

func (s *ContentService) loadArticles() ([]models.Article, error) {
	if cached, found := s.cache.Get("articles"); found {
		return cached.([]models.Article), nil
	}

	var articles []models.Article
	err := s.scanEntries(s.articlesPath, func(slug string, fm *contentFrontmatter, html string) {
		articles = append(articles, models.Article{
			Title:    entryTitle(fm, slug),
			Slug:     slug,
			Content:  html,
			Date:     parseContentDate(fm.Date),
			Category: fm.Category,
			Tags:     fm.Tags,
			Summary:  fm.Summary,
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Date.After(articles[j].Date)
	})

	s.cache.Set("articles", articles, gocache.DefaultExpiration)
	return articles, nil
}

func (s *ContentService) loadProjects() ([]models.Project, error) {
	if cached, found := s.cache.Get("projects"); found {
		return cached.([]models.Project), nil
	}

	var projects []models.Project
	err := s.scanEntries(s.projectsPath, func(slug string, fm *contentFrontmatter, html string) {
		projects = append(projects, models.Project{
			Title:        entryTitle(fm, slug),
			Slug:         slug,
			Content:      html,
			Date:         parseContentDate(fm.Date),
			Status:       fm.Status,
			Technologies: fm.Technologies,
			Summary:      fm.Summary,
			URL:          fm.URL,
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].Date.After(projects[j].Date)
	})

	s.cache.Set("projects", projects, gocache.DefaultExpiration)
	return projects, nil
}

// scanEntries walks <root>/<slug>/<slug>.md entries and invokes add for each
// parseable one. Entries that fail to parse are skipped, not fatal.
func (s *ContentService) scanEntries(root string, add func(slug string, fm *contentFrontmatter, html string)) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to scan content: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || skipDirs[entry.Name()] || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		slug := entry.Name()

		mdPath, ok := s.findMarkdownFile(filepath.Join(root, slug), slug)
		if !ok {
			continue
		}

		fm, html, err := s.parseMarkdownFile(mdPath)
		if err != nil {
			logrus.WithError(err).WithField("entry", slug).Error("failed to parse content entry")
			continue
		}
		add(slug, fm, html)
	}
	return nil
}

// findMarkdownFile prefers <slug>.md and falls back to the first markdown
// file in the entry directory.
func (s *ContentService) findMarkdownFile(dir, slug string) (string, bool) {
	preferred := filepath.Join(dir, slug+".md")
	if s.isSafePath(preferred) {
		if _, err := os.Stat(preferred); err == nil {
			return preferred, true
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	if !s.isSafePath(matches[0]) {
		return "", false
	}
	return matches[0], true
}

// parseMarkdownFile splits optional YAML frontmatter from the body and
// renders the body to HTML.
func (s *ContentService) parseMarkdownFile(path string) (*contentFrontmatter, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	content := strings.ReplaceAll(string(raw), "\r\n", "\n")
	content = strings.TrimSpace(content)

	fm := &contentFrontmatter{}
	body := content

	if strings.HasPrefix(content, "---\n") {
		rest := content[4:]
		if closingIdx := strings.Index(rest, "\n---"); closingIdx != -1 {
			if err := yaml.Unmarshal([]byte(rest[:closingIdx]), fm); err != nil {
				return nil, "", fmt.Errorf("invalid frontmatter in %s: %w", path, err)
			}
			body = strings.TrimSpace(rest[closingIdx+4:])
		}
	}

	var buf bytes.Buffer
	if err := s.md.Convert([]byte(body), &buf); err != nil {
		return nil, "", fmt.Errorf("failed to render %s: %w", path, err)
	}

	return fm, buf.String(), nil
}

// isSafePath rejects paths that resolve outside the content root.
func (s *ContentService) isSafePath(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return abs == s.contentDir || strings.HasPrefix(abs, s.contentDir+string(filepath.Separator))
}

func entryTitle(fm *contentFrontmatter, slug string) string {
	if fm.Title != "" {
		return fm.Title
	}
	return slug
}

// parseContentDate accepts RFC 3339 or plain dates; anything else falls back
// to the current time so the entry still lists.
func parseContentDate(raw string) time.Time {
	if raw == "" {
		return time.Now()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Now()
}

func isValidSlug(slug string) bool {
	if slug == "" {
		return false
	}
	for _, r := range slug {
		if !isAlphanumeric(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

func isValidCategory(category string) bool {
	for _, r := range category {
		if !isAlphanumeric(r) && r != '-' {
			return false
		}
	}
	return true
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
