package domain

import "time"

type SchedulingModel string

const (
	SchedulingIndividual SchedulingModel = "individual"
	SchedulingTeam       SchedulingModel = "team"
)

type Settings struct {
	AppName             string
	OrganizationName    string
	OrganizationAddress string
	OrganizationPhone   string
	ContactEmail        string
	LogoURL             string
	MapCenterLat        float64
	MapCenterLng        float64
	MaintenanceMode     bool
	MaintenanceMessage  string
	SchedulingModel     SchedulingModel
	DeveloperName       string
	DeveloperTitle      string
	UpdatedAt           time.Time
}

// DefaultSettings is used until an administrator stores settings.
func DefaultSettings() Settings {
	return Settings{
		AppName:          "WeCare",
		OrganizationName: "WeCare EMS",
		ContactEmail:     "contact@wecare.ems",
		MapCenterLat:     13.7563,
		MapCenterLng:     100.5018,
		SchedulingModel:  SchedulingIndividual,
	}
}
