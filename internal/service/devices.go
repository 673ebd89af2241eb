package service

import (
	"context"
	"fmt"
	"strings"

	"wifi_tracker/internal/models"
	"wifi_tracker/internal/repository"
)

type DeviceService struct {
	devices repository.DeviceRepo
}

func NewDeviceService(devices repository.DeviceRepo) *DeviceService {
	return &DeviceService{devices: devices}
}

// List returns a snapshot of the devices selected by f, in first-seen order.
func (s *DeviceService) List(_ context.Context, f DeviceFilter) ([]models.Device, error) {
	switch f.Query {
	case QueryAll:
		return s.devices.All(), nil
	case QueryOnline:
		return s.devices.Online(), nil
	case QueryOffline:
		return s.devices.Offline(), nil
	case QueryAccessPoint:
		return s.devices.ByAccessPoint(strings.TrimSpace(f.AccessPoint)), nil
	default:
		return nil, fmt.Errorf("unknown device query %d", f.Query)
	}
}

// Get accepts any common MAC spelling. It returns
// models.ErrInvalidHardwareAddress or ErrDeviceNotFound.
func (s *DeviceService) Get(_ context.Context, mac string) (models.Device, error) {
	canonical, err := models.NormalizeMAC(mac)
	if err != nil {
		return models.Device{}, err
	}
	d, ok := s.devices.ByMAC(canonical)
	if !ok {
		return models.Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, canonical)
	}
	return d, nil
}

func (s *DeviceService) AccessPoints(_ context.Context) ([]string, error) {
	return s.devices.AccessPoints(), nil
}
