package service

import "errors"

// DeviceQuery selects which devices List returns.
type DeviceQuery int

const (
	QueryAll DeviceQuery = iota
	QueryOnline
	QueryOffline
	QueryAccessPoint // uses DeviceFilter.AccessPoint
)

type DeviceFilter struct {
	Query       DeviceQuery
	AccessPoint string
}

// ErrDeviceNotFound means the hardware address was never observed.
var ErrDeviceNotFound = errors.New("device not found")
