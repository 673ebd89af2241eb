package models

import (
	"encoding/json"
	"time"
)

// Device is the association state of one client, keyed by its hardware address.
type Device struct {
	MAC               string
	AccessPoints      []string // first-seen order, no duplicates
	LastAssociated    *time.Time
	LastDisassociated *time.Time
	LastObserved      *time.Time
}

// Online is derived from the association timestamps and is never stored.
func (d Device) Online() bool {
	if d.LastAssociated == nil {
		return false
	}
	if d.LastDisassociated == nil {
		return true
	}
	return d.LastAssociated.After(*d.LastDisassociated)
}

// HasAccessPoint reports whether the device was ever seen on ap.
func (d Device) HasAccessPoint(ap string) bool {
	for _, seen := range d.AccessPoints {
		if seen == ap {
			return true
		}
	}
	return false
}

// Clone returns a deep copy that shares no memory with d.
func (d Device) Clone() Device {
	out := Device{
		MAC:               d.MAC,
		AccessPoints:      make([]string, len(d.AccessPoints)),
		LastAssociated:    cloneTime(d.LastAssociated),
		LastDisassociated: cloneTime(d.LastDisassociated),
		LastObserved:      cloneTime(d.LastObserved),
	}
	copy(out.AccessPoints, d.AccessPoints)
	return out
}

type deviceJSON struct {
	MAC               string     `json:"hardware_ethernet"`
	AccessPoints      []string   `json:"access_points"`
	LastAssociated    *time.Time `json:"last_associated"`
	LastDisassociated *time.Time `json:"last_disassociated"`
	LastObserved      *time.Time `json:"last_observed"`
	Online            bool       `json:"online"`
}

// MarshalJSON renders the device with its derived online flag.
func (d Device) MarshalJSON() ([]byte, error) {
	aps := d.AccessPoints
	if aps == nil {
		aps = []string{}
	}
	return json.Marshal(deviceJSON{
		MAC:               d.MAC,
		AccessPoints:      aps,
		LastAssociated:    utcPtr(d.LastAssociated),
		LastDisassociated: utcPtr(d.LastDisassociated),
		LastObserved:      utcPtr(d.LastObserved),
		Online:            d.Online(),
	})
}

// UnmarshalJSON reads the wire shape back. The online field is ignored
// because it is recomputed from the timestamps.
func (d *Device) UnmarshalJSON(b []byte) error {
	var v deviceJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*d = Device{
		MAC:               v.MAC,
		AccessPoints:      v.AccessPoints,
		LastAssociated:    v.LastAssociated,
		LastDisassociated: v.LastDisassociated,
		LastObserved:      v.LastObserved,
	}
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// utcPtr normalizes non-nil timestamps to UTC so they render as ...Z.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
