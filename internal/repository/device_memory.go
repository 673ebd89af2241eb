package repository

import (
	"sort"
	"sync"
	"time"

	"wifi_tracker/internal/models"
)

// DeviceMemory keeps devices in a map guarded by one RWMutex, plus the
// creation order so listings are stable.
type DeviceMemory struct {
	mu      sync.RWMutex
	devices map[string]*models.Device
	order   []string
}

func NewDeviceMemory() *DeviceMemory {
	return &DeviceMemory{devices: make(map[string]*models.Device)}
}

// Apply folds one event into the table. Timestamps only move forward, so
// a late event never overwrites newer state. It reports whether the device
// was seen for the first time.
func (r *DeviceMemory) Apply(e models.Event) bool {
	if e.MAC == "" {
		return false
	}
	ts := e.Timestamp.UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[e.MAC]
	if !ok {
		d = &models.Device{MAC: e.MAC}
		r.devices[e.MAC] = d
		r.order = append(r.order, e.MAC)
	}

	if e.AccessPoint != "" && !d.HasAccessPoint(e.AccessPoint) {
		d.AccessPoints = append(d.AccessPoints, e.AccessPoint)
	}

	d.LastObserved = latest(d.LastObserved, ts)
	switch e.Kind {
	case models.EventAssociated:
		d.LastAssociated = latest(d.LastAssociated, ts)
	case models.EventDisassociated:
		d.LastDisassociated = latest(d.LastDisassociated, ts)
	}
	return !ok
}

// All returns every device in creation order.
func (r *DeviceMemory) All() []models.Device {
	return r.filter(func(models.Device) bool { return true })
}

// ByMAC expects mac in canonical form.
func (r *DeviceMemory) ByMAC(mac string) (models.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[mac]
	if !ok {
		return models.Device{}, false
	}
	return d.Clone(), true
}

// ByAccessPoint includes devices that were on ap at any point in the past.
func (r *DeviceMemory) ByAccessPoint(ap string) []models.Device {
	return r.filter(func(d models.Device) bool { return d.HasAccessPoint(ap) })
}

func (r *DeviceMemory) Online() []models.Device {
	return r.filter(models.Device.Online)
}

func (r *DeviceMemory) Offline() []models.Device {
	return r.filter(func(d models.Device) bool { return !d.Online() })
}

// AccessPoints lists every access point named by any device, sorted.
func (r *DeviceMemory) AccessPoints() []string {
	r.mu.RLock()
	seen := make(map[string]struct{})
	for _, d := range r.devices {
		for _, ap := range d.AccessPoints {
			seen[ap] = struct{}{}
		}
	}
	r.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for ap := range seen {
		out = append(out, ap)
	}
	sort.Strings(out)
	return out
}

func (r *DeviceMemory) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// filter copies matching devices while holding the read lock.
func (r *DeviceMemory) filter(keep func(models.Device) bool) []models.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Device, 0, len(r.order))
	for _, mac := range r.order {
		d := r.devices[mac]
		if keep(*d) {
			out = append(out, d.Clone())
		}
	}
	return out
}

// latest returns whichever of cur and ts is later; ties keep cur.
func latest(cur *time.Time, ts time.Time) *time.Time {
	if cur != nil && !ts.After(*cur) {
		return cur
	}
	return &ts
}
