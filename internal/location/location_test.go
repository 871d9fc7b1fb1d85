package location

import (
	"math"
	"testing"

	"github.com/sheridangray/family-event-planner/internal/event"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"100 Larkin St.", "100 larkin st"},
		{"100   larkin street", "100 larkin st"},
		{"1 Zoo Road, San Francisco, CA 94132", "1 zoo rd san francisco ca 94132"},
		{"55 Music Concourse Dr - North Entrance", "55 music concourse dr n entrance"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeAddress(tt.in); got != tt.want {
				t.Errorf("NormalizeAddress(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompareAddresses(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		want    float64
		atLeast float64
		atMost  float64
	}{
		{name: "both missing", a: "", b: "", want: 0.5},
		{name: "one missing", a: "100 Larkin St", b: "", want: 0.0},
		{name: "same after normalization", a: "100 Larkin Street", b: "100 larkin st.", want: 1.0},
		{name: "trailing city and zip", a: "100 Larkin St", b: "100 Larkin St, San Francisco, CA 94102", want: -1, atLeast: 0.99},
		{name: "different house number", a: "100 Larkin St", b: "200 Larkin St", want: -1, atLeast: 0.6, atMost: 0.7},
		{name: "different streets", a: "100 Larkin St", b: "1 Zoo Rd", want: -1, atMost: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareAddresses(tt.a, tt.b)
			if tt.want >= 0 {
				if math.Abs(got-tt.want) > 1e-9 {
					t.Errorf("CompareAddresses(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
				}
				return
			}
			if tt.atLeast > 0 && got < tt.atLeast {
				t.Errorf("CompareAddresses(%q, %q) = %v, want >= %v", tt.a, tt.b, got, tt.atLeast)
			}
			if tt.atMost > 0 && got > tt.atMost {
				t.Errorf("CompareAddresses(%q, %q) = %v, want <= %v", tt.a, tt.b, got, tt.atMost)
			}
		})
	}
}

func TestCompareLocationsSymmetric(t *testing.T) {
	c := New()
	addrs := []string{"100 Larkin St", "100 Larkin Street, SF", "1 Zoo Rd 94132", "", "Golden Gate Park"}

	for _, a := range addrs {
		for _, b := range addrs {
			ab := c.CompareLocations(event.Location{Address: a}, event.Location{Address: b})
			ba := c.CompareLocations(event.Location{Address: b}, event.Location{Address: a})
			if ab != ba {
				t.Errorf("CompareLocations(%q, %q) = %v but reversed = %v", a, b, ab, ba)
			}
			if ab < 0 || ab > 1 {
				t.Errorf("CompareLocations(%q, %q) = %v, want within [0,1]", a, b, ab)
			}
		}
	}
}
