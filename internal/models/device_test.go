package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func tp(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestDevice_Online(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		assoc  *time.Time
		disas  *time.Time
		online bool
	}{
		{"never associated", nil, nil, false},
		{"never associated but disassociated", nil, tp("2024-01-02T12:00:00Z"), false},
		{"associated only", tp("2024-01-02T12:00:00Z"), nil, true},
		{"associated after disassociated", tp("2024-01-02T13:00:00Z"), tp("2024-01-02T12:00:00Z"), true},
		{"disassociated after associated", tp("2024-01-02T12:00:00Z"), tp("2024-01-02T13:00:00Z"), false},
		{"equal timestamps are offline", tp("2024-01-02T12:00:00Z"), tp("2024-01-02T12:00:00Z"), false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			d := Device{LastAssociated: tc.assoc, LastDisassociated: tc.disas}
			if got := d.Online(); got != tc.online {
				t.Fatalf("Online() = %v, want %v", got, tc.online)
			}
		})
	}
}

func TestDevice_MarshalJSON(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("X", 2*3600)
	assoc := time.Date(2024, 1, 2, 14, 34, 56, 0, loc)
	d := Device{
		MAC:            "00:00:00:00:00:02",
		AccessPoints:   []string{"bedroom-ap"},
		LastAssociated: &assoc,
		LastObserved:   &assoc,
	}

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["hardware_ethernet"] != "00:00:00:00:00:02" {
		t.Errorf("hardware_ethernet = %v", got["hardware_ethernet"])
	}
	if got["last_associated"] != "2024-01-02T12:34:56Z" {
		t.Errorf("last_associated = %v, want UTC ISO-8601", got["last_associated"])
	}
	if v, ok := got["last_disassociated"]; !ok || v != nil {
		t.Errorf("last_disassociated must be present and null, got %v (present=%v)", v, ok)
	}
	if got["online"] != true {
		t.Errorf("online = %v, want true", got["online"])
	}
}

func TestDevice_MarshalJSON_EmptyAccessPoints(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Device{MAC: "aa:bb:cc:dd:ee:ff"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	_ = json.Unmarshal(b, &got)
	aps, ok := got["access_points"].([]any)
	if !ok || len(aps) != 0 {
		t.Fatalf("access_points = %#v, want empty array", got["access_points"])
	}
}

func TestDevice_UnmarshalJSON_IgnoresOnline(t *testing.T) {
	t.Parallel()

	raw := `{"hardware_ethernet":"00:00:00:00:00:02","access_points":["a"],"last_associated":null,"last_disassociated":null,"last_observed":null,"online":true}`
	var d Device
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Online() {
		t.Fatalf("online must be derived from timestamps, not read from JSON")
	}
	if d.MAC != "00:00:00:00:00:02" || len(d.AccessPoints) != 1 {
		t.Fatalf("unexpected device: %+v", d)
	}
}

func TestDevice_Clone(t *testing.T) {
	t.Parallel()

	orig := Device{
		MAC:            "00:00:00:00:00:01",
		AccessPoints:   []string{"a", "b"},
		LastAssociated: tp("2024-01-02T12:00:00Z"),
	}
	c := orig.Clone()
	c.AccessPoints[0] = "changed"
	*c.LastAssociated = c.LastAssociated.Add(time.Hour)

	if orig.AccessPoints[0] != "a" {
		t.Errorf("clone shares access point slice")
	}
	if !orig.LastAssociated.Equal(*tp("2024-01-02T12:00:00Z")) {
		t.Errorf("clone shares timestamp memory")
	}
	if !orig.HasAccessPoint("b") || orig.HasAccessPoint("c") {
		t.Errorf("HasAccessPoint mismatch")
	}
}

func TestNormalizeMAC(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"00:00:00:00:00:02", "00:00:00:00:00:02", false},
		{"32:42:FD:88:86:0C", "32:42:fd:88:86:0c", false},
		{"32-42-fd-88-86-0c", "32:42:fd:88:86:0c", false},
		{" 04:17:b6:37:96:dc ", "04:17:b6:37:96:dc", false},
		{"04:17:b6:37:96", "", true},
		{"zz:17:b6:37:96:dc", "", true},
		{"00:00:00:00:fe:80:00:00", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		got, err := NormalizeMAC(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidHardwareAddress) {
				t.Errorf("NormalizeMAC(%q) err = %v, want ErrInvalidHardwareAddress", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeMAC(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeMAC(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseEventKind(t *testing.T) {
	t.Parallel()

	for _, k := range []EventKind{EventAssociated, EventDisassociated, EventObserved} {
		got, err := ParseEventKind(k.String())
		if err != nil || got != k {
			t.Errorf("round trip %v: got %v, %v", k, got, err)
		}
	}
	if _, err := ParseEventKind("ignored"); err == nil {
		t.Errorf("expected error for unknown kind")
	}
}
