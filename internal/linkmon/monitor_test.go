package linkmon

import (
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestMonitor() *Monitor {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewDefault(logger)
}

func TestRouteExists(t *testing.T) {
	m := newTestMonitor()

	tests := []struct {
		path   string
		exists bool
	}{
		{"/admin", true},
		{"/admin/login", true},
		{"/admin/productos", true},
		{"/admin/productos/nuevo", true},
		{"/admin/productos/editar/producto-abc", true},
		{"/api/auth/login", true},
		// Redirect-map presence means the route is known dead.
		{"/admin/usuarios", false},
		{"/admin/configuracion", false},
		{"/admin/inventado", false},
		// A dynamic prefix with no trailing segment is not a page.
		{"/admin/productos/editar/", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.exists, m.RouteExists(tt.path))
		})
	}
}

func TestRedirectFor(t *testing.T) {
	m := newTestMonitor()

	assert.Equal(t, "/admin/productos", m.RedirectFor("/admin/usuarios"))
	assert.Equal(t, "/admin", m.RedirectFor("/admin/estadisticas"))
	assert.Empty(t, m.RedirectFor("/admin/productos"), "live routes have no redirect")
	assert.Empty(t, m.RedirectFor("/admin/inventado"))
}

func TestHandleNotFound(t *testing.T) {
	m := newTestMonitor()

	redirect := m.HandleNotFound("/admin/usuarios", "/admin", "agent", "1")
	assert.Equal(t, "/admin/productos", redirect)

	redirect = m.HandleNotFound("/admin/inventado", "", "agent", "")
	assert.Empty(t, redirect)

	events := m.Events()
	assert.Len(t, events, 2)
	assert.Equal(t, "/admin/usuarios", events[0].URL)
	assert.Equal(t, "1", events[0].UserID)
}

func TestSummary_OrdersByCount(t *testing.T) {
	m := newTestMonitor()

	for i := 0; i < 3; i++ {
		m.RecordBrokenLink("/admin/ventas", "", "agent", "")
	}
	m.RecordBrokenLink("/admin/pedidos", "", "agent", "")
	m.RecordBrokenLink("/admin/pedidos", "", "agent", "")
	m.RecordBrokenLink("/admin/clientes", "", "agent", "")

	summary := m.Summary()
	assert.Equal(t, []SummaryEntry{
		{URL: "/admin/ventas", Count: 3},
		{URL: "/admin/pedidos", Count: 2},
		{URL: "/admin/clientes", Count: 1},
	}, summary)
}

func TestRecordBrokenLink_Concurrent(t *testing.T) {
	m := newTestMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordBrokenLink("/admin/ventas", "", "agent", "")
		}()
	}
	wg.Wait()

	assert.Len(t, m.Events(), 50)
}
