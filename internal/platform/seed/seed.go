// Package seed loads the embedded development fixtures.
package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var fixturesYAML []byte

type User struct {
	Email    string `yaml:"email"`
	FullName string `yaml:"fullName"`
	Role     string `yaml:"role"`
	Password string `yaml:"password"`
	Phone    string `yaml:"phone"`
}

type VehicleType struct {
	Name        string `yaml:"name"`
	Capacity    int    `yaml:"capacity"`
	Description string `yaml:"description"`
}

type Vehicle struct {
	LicensePlate string `yaml:"licensePlate"`
	Brand        string `yaml:"brand"`
	Model        string `yaml:"model"`
	// Type references a VehicleType by name.
	Type     string `yaml:"type"`
	Capacity int    `yaml:"capacity"`
}

type Driver struct {
	FullName      string `yaml:"fullName"`
	Phone         string `yaml:"phone"`
	Email         string `yaml:"email"`
	UserEmail     string `yaml:"userEmail"`
	LicenseNumber string `yaml:"licenseNumber"`
	LicensePlate  string `yaml:"licensePlate"`
	VehicleBrand  string `yaml:"vehicleBrand"`
	VehicleModel  string `yaml:"vehicleModel"`
	VehicleColor  string `yaml:"vehicleColor"`
	VehicleType   string `yaml:"vehicleType"`
	Status        string `yaml:"status"`
}

type Settings struct {
	AppName          string  `yaml:"appName"`
	OrganizationName string  `yaml:"organizationName"`
	ContactEmail     string  `yaml:"contactEmail"`
	MapCenterLat     float64 `yaml:"mapCenterLat"`
	MapCenterLng     float64 `yaml:"mapCenterLng"`
	SchedulingModel  string  `yaml:"schedulingModel"`
}

type Fixtures struct {
	Users        []User        `yaml:"users"`
	VehicleTypes []VehicleType `yaml:"vehicleTypes"`
	Vehicles     []Vehicle     `yaml:"vehicles"`
	Drivers      []Driver      `yaml:"drivers"`
	Settings     *Settings     `yaml:"settings"`
}

// Load parses the embedded fixtures.
func Load() (Fixtures, error) {
	return Parse(fixturesYAML)
}

func Parse(b []byte) (Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Fixtures{}, fmt.Errorf("parse seed fixtures: %w", err)
	}
	return f, nil
}
