package repository

import (
	"wifi_tracker/internal/models"
)

// DeviceRepo is the authoritative association table.
// Apply is called by a single writer; every read returns copies that
// reflect the table after some prefix of the applied events.
type DeviceRepo interface {
	Apply(e models.Event) (created bool)
	All() []models.Device
	ByMAC(mac string) (models.Device, bool)
	ByAccessPoint(ap string) []models.Device
	Online() []models.Device
	Offline() []models.Device
	AccessPoints() []string
	Len() int
}

type Repository struct {
	DeviceRepo DeviceRepo
}

func NewRepository() *Repository {
	return &Repository{
		DeviceRepo: NewDeviceMemory(),
	}
}
