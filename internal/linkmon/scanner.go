package linkmon

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// FoundLink is one internal link extracted from source text
type FoundLink struct {
	Source string `json:"source"`
	Link   string `json:"link"`
	Line   int    `json:"line"`
}

// ScannerConfig controls the offline broken-link lint
type ScannerConfig struct {
	// ScanDirs are the source directories searched for links
	ScanDirs []string
	// PagesDir is the page-file tree the route set is built from
	PagesDir string
	// FileExtensions limits which source files are analyzed
	FileExtensions []string
	// IgnorePaths are links excluded from verification
	IgnorePaths []string
}

// DefaultScannerConfig mirrors the admin panel layout
func DefaultScannerConfig(root string) ScannerConfig {
	return ScannerConfig{
		ScanDirs: []string{
			filepath.Join(root, "src/pages/admin"),
			filepath.Join(root, "src/components"),
			filepath.Join(root, "src/layouts"),
		},
		PagesDir:       filepath.Join(root, "src/pages"),
		FileExtensions: []string{".astro", ".tsx", ".jsx", ".ts", ".js"},
		IgnorePaths:    []string{"/admin/login"},
	}
}

// linkPatterns match href attributes and programmatic redirects that
// target admin pages
var linkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`href=["'](/admin/[^"']+)["']`),
	regexp.MustCompile(`window\.location\.href\s*=\s*["'](/admin/[^"']+)["']`),
	regexp.MustCompile(`redirect\(["'](/admin/[^"']+)["']\)`),
}

var dynamicSegment = regexp.MustCompile(`\[([^\]]+)\]`)

// Scanner is the build-time lint that reports links with no matching
// page route. It never runs per-request.
type Scanner struct {
	cfg ScannerConfig
}

// NewScanner creates a scanner
func NewScanner(cfg ScannerConfig) *Scanner {
	return &Scanner{cfg: cfg}
}

// Routes builds the set of existing page routes from the pages tree:
// file-path segments become URL segments, `index` collapses to the
// directory path, and `[param]` segments become `:param`.
func (s *Scanner) Routes() ([]string, error) {
	routes := []string{}

	err := filepath.WalkDir(s.cfg.PagesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !s.isPageFile(path) {
			return nil
		}

		rel, err := filepath.Rel(s.cfg.PagesDir, path)
		if err != nil {
			return err
		}

		route := "/" + filepath.ToSlash(rel)
		route = strings.TrimSuffix(route, filepath.Ext(route))
		route = strings.TrimSuffix(route, "/index")
		if route == "" {
			route = "/"
		}
		route = dynamicSegment.ReplaceAllString(route, ":$1")

		routes = append(routes, route)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return routes, nil
		}
		return nil, err
	}

	return routes, nil
}

// ExtractLinks scans the configured source directories and returns
// every admin link with its file and line number
func (s *Scanner) ExtractLinks() ([]FoundLink, error) {
	links := []FoundLink{}

	for _, dir := range s.cfg.ScanDirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() || !s.isSourceFile(path) {
				return nil
			}

			fileLinks, err := s.scanFile(path)
			if err != nil {
				return err
			}
			links = append(links, fileLinks...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return links, nil
}

// Verify returns every extracted link that matches no existing route,
// either directly or as a single-parameter dynamic route.
func (s *Scanner) Verify() ([]FoundLink, error) {
	routes, err := s.Routes()
	if err != nil {
		return nil, err
	}

	links, err := s.ExtractLinks()
	if err != nil {
		return nil, err
	}

	routeSet := make(map[string]struct{}, len(routes))
	for _, route := range routes {
		routeSet[route] = struct{}{}
	}

	broken := []FoundLink{}
	for _, link := range links {
		if routeMatches(routeSet, link.Link) {
			continue
		}
		broken = append(broken, link)
	}

	return broken, nil
}

func routeMatches(routes map[string]struct{}, link string) bool {
	if _, ok := routes[link]; ok {
		return true
	}

	// A trailing segment may satisfy a one-level dynamic route.
	idx := strings.LastIndex(link, "/")
	if idx <= 0 {
		return false
	}
	for route := range routes {
		ridx := strings.LastIndex(route, "/")
		if ridx == idx && strings.HasPrefix(route[ridx:], "/:") && route[:ridx] == link[:idx] {
			return true
		}
	}
	return false
}

func (s *Scanner) scanFile(path string) ([]FoundLink, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	links := []FoundLink{}
	scanner := bufio.NewScanner(f)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()

		for _, pattern := range linkPatterns {
			for _, match := range pattern.FindAllStringSubmatch(line, -1) {
				link := match[1]
				if contains(s.cfg.IgnorePaths, link) {
					continue
				}
				links = append(links, FoundLink{Source: path, Link: link, Line: lineNumber})
			}
		}
	}

	return links, scanner.Err()
}

func (s *Scanner) isPageFile(path string) bool {
	switch filepath.Ext(path) {
	case ".astro", ".tsx", ".jsx":
		return true
	}
	return false
}

func (s *Scanner) isSourceFile(path string) bool {
	ext := filepath.Ext(path)
	for _, allowed := range s.cfg.FileExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
