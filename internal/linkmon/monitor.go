// Package linkmon tracks navigation to stale admin routes: a static
// route table decides whether a path exists, a redirect map names the
// successor of known-dead paths, and broken-link hits are kept in
// process memory for the admin dashboard.
package linkmon

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/superior-pamerca/admin-api/internal/metrics"
)

// BrokenLinkEvent is one recorded hit on a nonexistent route. Events
// live only for the process lifetime; they are advisory diagnostics,
// not authoritative state.
type BrokenLinkEvent struct {
	URL       string    `json:"url"`
	Referrer  string    `json:"referrer"`
	Timestamp time.Time `json:"timestamp"`
	UserAgent string    `json:"userAgent"`
	UserID    string    `json:"userId,omitempty"`
}

// SummaryEntry aggregates broken-link hits per URL
type SummaryEntry struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// Monitor answers route-existence queries and records broken links.
// Instances are injected rather than shared through package state so
// tests get isolated monitors.
type Monitor struct {
	logger *logrus.Logger

	knownRoutes     []string
	dynamicPrefixes []string
	redirectMap     map[string]string

	mu     sync.Mutex
	events []BrokenLinkEvent
}

// DefaultRedirectMap maps known-stale admin paths to their successors
func DefaultRedirectMap() map[string]string {
	return map[string]string{
		"/admin/productos/eliminar": "/admin/productos",
		"/admin/usuarios":           "/admin/productos",
		"/admin/usuarios/nuevo":     "/admin/productos",
		"/admin/configuracion":      "/admin",
		"/admin/perfil":             "/admin",
		"/admin/estadisticas":       "/admin",
		"/admin/ventas":             "/admin",
		"/admin/categorias":         "/admin/productos",
		"/admin/pedidos":            "/admin",
		"/admin/reportes":           "/admin",
		"/admin/clientes":           "/admin",
	}
}

// DefaultKnownRoutes lists the static admin panel pages
func DefaultKnownRoutes() []string {
	return []string{
		"/admin",
		"/admin/login",
		"/admin/productos",
		"/admin/productos/nuevo",
		"/admin/404",
	}
}

// DefaultDynamicPrefixes lists prefixes of parameterized routes
func DefaultDynamicPrefixes() []string {
	return []string{
		"/admin/productos/editar/",
		"/api/auth/",
	}
}

// New creates a monitor with the given route table and redirect map
func New(knownRoutes, dynamicPrefixes []string, redirectMap map[string]string, logger *logrus.Logger) *Monitor {
	return &Monitor{
		logger:          logger,
		knownRoutes:     knownRoutes,
		dynamicPrefixes: dynamicPrefixes,
		redirectMap:     redirectMap,
	}
}

// NewDefault creates a monitor with the panel's standard tables
func NewDefault(logger *logrus.Logger) *Monitor {
	return New(DefaultKnownRoutes(), DefaultDynamicPrefixes(), DefaultRedirectMap(), logger)
}

// RouteExists reports whether path resolves to a live page. A path
// present in the redirect map is dead by definition, it already has a
// designated successor.
func (m *Monitor) RouteExists(path string) bool {
	if _, dead := m.redirectMap[path]; dead {
		return false
	}

	for _, route := range m.knownRoutes {
		if path == route {
			return true
		}
	}

	for _, prefix := range m.dynamicPrefixes {
		if strings.HasPrefix(path, prefix) && len(path) > len(prefix) {
			return true
		}
	}

	return false
}

// RedirectFor returns the designated successor path, or empty when none
func (m *Monitor) RedirectFor(path string) string {
	return m.redirectMap[path]
}

// RecordBrokenLink appends an in-memory event for a 404 hit
func (m *Monitor) RecordBrokenLink(url, referrer, userAgent, userID string) {
	event := BrokenLinkEvent{
		URL:       url,
		Referrer:  referrer,
		Timestamp: time.Now(),
		UserAgent: userAgent,
		UserID:    userID,
	}

	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"url":      url,
		"referrer": referrer,
	}).Error("Broken admin link detected")
}

// HandleNotFound records the hit and returns the successor path, empty
// when no redirect is configured
func (m *Monitor) HandleNotFound(url, referrer, userAgent, userID string) string {
	m.RecordBrokenLink(url, referrer, userAgent, userID)

	redirect := m.RedirectFor(url)
	metrics.RecordBrokenLink(redirect != "")
	return redirect
}

// Events returns a copy of the recorded broken-link events
func (m *Monitor) Events() []BrokenLinkEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make([]BrokenLinkEvent, len(m.events))
	copy(events, m.events)
	return events
}

// Summary aggregates broken-link hits per URL, most-hit first
func (m *Monitor) Summary() []SummaryEntry {
	m.mu.Lock()
	counts := make(map[string]int, len(m.events))
	for _, event := range m.events {
		counts[event.URL]++
	}
	m.mu.Unlock()

	summary := make([]SummaryEntry, 0, len(counts))
	for url, count := range counts {
		summary = append(summary, SummaryEntry{URL: url, Count: count})
	}

	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Count != summary[j].Count {
			return summary[i].Count > summary[j].Count
		}
		return summary[i].URL < summary[j].URL
	})

	return summary
}
