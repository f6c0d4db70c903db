package shipping

import "time"

// MethodKind is the closed set of supported shipping methods.
type MethodKind string

const (
	MethodPickup  MethodKind = "pickup"
	MethodCourier MethodKind = "courier"
)

// RequiresDelivery reports whether the method needs a destination address
// and a courier rate quote.
func (k MethodKind) RequiresDelivery() bool {
	return k == MethodCourier
}

func ParseMethodKind(slug string) (MethodKind, bool) {
	switch MethodKind(slug) {
	case MethodPickup, MethodCourier:
		return MethodKind(slug), true
	}
	return "", false
}

// Method is a configured shipping method row.
type Method struct {
	ID        uint
	Name      string
	Kind      MethodKind
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Rate is one courier service option returned by the carrier-rate API.
type Rate struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Service     string `json:"service"`
	Description string `json:"description"`
	Cost        int    `json:"cost"`
	ETD         string `json:"etd"`
}

// Destination is one searchable delivery area.
type Destination struct {
	ID              int    `json:"id"`
	Label           string `json:"label"`
	ProvinceName    string `json:"province_name"`
	CityName        string `json:"city_name"`
	DistrictName    string `json:"district_name"`
	SubdistrictName string `json:"subdistrict_name"`
	ZipCode         string `json:"zip_code"`
}

// Quote is the resolved shipping cost for one vendor group.
type Quote struct {
	Cost     int    `json:"cost"`
	Courier  string `json:"courier"`
	Service  string `json:"service"`
	Estimate string `json:"estimate"`
}
