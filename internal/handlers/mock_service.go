package handlers

import (
	"context"

	"wifi_tracker/internal/models"
	"wifi_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockDevices struct {
	list    []models.Device
	listErr error
	dev     models.Device
	getErr  error
	aps     []string
	apsErr  error

	lastFilter service.DeviceFilter
	lastMAC    string
	listCalls  int
}

func (m *mockDevices) List(ctx context.Context, f service.DeviceFilter) ([]models.Device, error) {
	m.listCalls++
	m.lastFilter = f
	return m.list, m.listErr
}
func (m *mockDevices) Get(ctx context.Context, mac string) (models.Device, error) {
	m.lastMAC = mac
	return m.dev, m.getErr
}
func (m *mockDevices) AccessPoints(ctx context.Context) ([]string, error) {
	return m.aps, m.apsErr
}

type mockIngest struct {
	stats models.IngestStats
}

func (m *mockIngest) Run(ctx context.Context) error { return nil }
func (m *mockIngest) Stats() models.IngestStats    { return m.stats }

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
