package types

import "time"

const (
	// DefaultCapacityUnit is reported by the cloud when a plant omits capacity_company.
	DefaultCapacityUnit = "KW"
	// DefaultPowerUnit is reported by the cloud when a plant omits company.
	DefaultPowerUnit = "W"

	CurrentSnapshotVersion = 1

	// StatusErrorAccount is the Status.Errors key used when the account could
	// not be fetched.
	StatusErrorAccount = "account"

	// statusErrorPlantPrefix keeps plant keys apart from StatusErrorAccount.
	statusErrorPlantPrefix = "plant:"
)

// OverviewData represents the account-wide aggregate of every plant: capacity,
// current power, produced energy, device status counts and environmental
// impact.
type OverviewData struct {
	Capacity        float64 `json:"capacity"`         // installed capacity in CapacityCompany units
	CapacityCompany string  `json:"capacity_company"` // unit for Capacity, usually "KW"
	Power           int     `json:"power"`            // current power in Company units
	Company         string  `json:"company"`          // unit for Power, usually "W"
	Percent         int     `json:"percent"`          // current power as a percent of capacity
	EToday          float64 `json:"e_today"`          // kWh produced today
	ETotal          float64 `json:"e_total"`          // kWh produced since commissioning
	FaultDevNum     int     `json:"fault_dev_num"`
	NormalDevNum    int     `json:"normal_dev_num"`
	OfflineDevNum   int     `json:"offline_dev_num"`
	WaitDevNum      int     `json:"wait_dev_num"`
	TotalCO2        int     `json:"total_co2"`  // kg of CO2 saved
	TotalTree       float64 `json:"total_tree"` // equivalent trees planted
}

// NewOverviewData returns an OverviewData with the cloud's default units.
func NewOverviewData() OverviewData {
	return OverviewData{
		CapacityCompany: DefaultCapacityUnit,
		Company:         DefaultPowerUnit,
	}
}

// DeviceCount returns the number of devices across every status.
func (o OverviewData) DeviceCount() int {
	return o.FaultDevNum + o.NormalDevNum + o.OfflineDevNum + o.WaitDevNum
}

// PlantData represents a single physical plant.
type PlantData struct {
	City      string  `json:"city"`
	Country   string  `json:"country"`
	EToday    float64 `json:"e_today"`
	ETotal    float64 `json:"e_total"`
	EID       int     `json:"eid"`
	KWHImp    int     `json:"kwhimp"`
	Micro     int     `json:"micro"`
	PlantID   string  `json:"plant_id"`
	PlantName string  `json:"plant_name"`
	PlantType string  `json:"plant_type"`
	Power     int     `json:"power"` // W
	Status    string  `json:"status"`
}

// InverterData represents a single inverter. It references its plant by ID.
type InverterData struct {
	PlantID         string  `json:"plant_id"`
	SN              string  `json:"sn"`
	Model           string  `json:"model"`
	Status          string  `json:"status"`
	Power           int     `json:"power"` // W
	EToday          float64 `json:"e_today"`
	ETotal          float64 `json:"e_total"`
	SoftwareVersion string  `json:"software_version"`
}

// AdminInfo represents the authenticated account.
type AdminInfo struct {
	ParentName        string   `json:"parent_name"`
	Role              []string `json:"role"`
	ParentID          string   `json:"parent_id"`
	HasLowerLevel     bool     `json:"has_lower_level"`
	LastLoginTime     string   `json:"last_login_time"`
	CreatedAt         string   `json:"created_at"`
	DeletedAt         string   `json:"deleted_at"`
	Country           string   `json:"country"`
	Address           string   `json:"address"`
	Email             string   `json:"email"`
	Mobile            string   `json:"mobile"`
	MobilePrefixCode  string   `json:"mobile_prefix_code"`
	LoginName         string   `json:"login_name"`
	FirstName         string   `json:"first_name"`
	LastName          string   `json:"last_name"`
	Company           string   `json:"company"`
	City              string   `json:"city"`
	CityMobileCode    string   `json:"city_mobile_code"`
	Username          string   `json:"username"`
	CountryMobileCode string   `json:"country_mobile_code"`
	Photo             string   `json:"photo"`
	Address2          string   `json:"address2"`
	Language          string   `json:"language"`
	Currency          string   `json:"currency"`
	PostalCode        string   `json:"postal_code"`
	Timezone          string   `json:"timezone"`
	LastLoginIP       string   `json:"last_login_ip"`
	ID                string   `json:"id"`
	EID               int      `json:"eid"`
	Manufacturer      int      `json:"manufacturer"`
	SwitchWarning     int      `json:"switch_warning"`
	IsInternal        int      `json:"is_internal"`
	Status            int      `json:"status"`
	FirstLogin        bool     `json:"first_login"`
	// Token is the account's own session token as echoed by the cloud. It is
	// never serialized back out.
	Token string `json:"-"`
}

// FullName joins the first and last name, skipping empty parts.
func (a AdminInfo) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	default:
		return a.FirstName + " " + a.LastName
	}
}

// OverviewSnapshot is an OverviewData observed at a point in time.
type OverviewSnapshot struct {
	Timestamp time.Time    `json:"timestamp"`
	Overview  OverviewData `json:"overview"`
}

// PlantSnapshot is a plant and its inverters observed at a point in time.
type PlantSnapshot struct {
	Timestamp time.Time      `json:"timestamp"`
	Plant     PlantData      `json:"plant"`
	Inverters []InverterData `json:"inverters"`
}

// Status is the result of one collection across the whole account.
type Status struct {
	Timestamp time.Time       `json:"timestamp"`
	Account   AdminInfo       `json:"account"`
	Overview  OverviewData    `json:"overview"`
	Plants    []PlantSnapshot `json:"plants"`
	// Errors lists what could not be collected, keyed by StatusErrorAccount
	// or PlantErrorKey.
	Errors map[string]string `json:"errors,omitempty"`
}

// Plant returns the snapshot for plantID.
func (s Status) Plant(plantID string) (PlantSnapshot, bool) {
	for _, p := range s.Plants {
		if p.Plant.PlantID == plantID {
			return p, true
		}
	}
	return PlantSnapshot{}, false
}

// PlantErrorKey is the Status.Errors key of a plant whose inverters could not
// be fetched.
func PlantErrorKey(plantID string) string {
	return statusErrorPlantPrefix + plantID
}

// PlantError returns why the inverters of plantID are missing, if they are.
func (s Status) PlantError(plantID string) (string, bool) {
	msg, ok := s.Errors[PlantErrorKey(plantID)]
	return msg, ok
}
