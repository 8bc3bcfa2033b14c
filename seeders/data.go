package seeders

import "gearguard/pkg/constants"

// DefaultPassword - пароль всех демо-пользователей.
const DefaultPassword = "password123"

var teamsData = []string{"Mechanics", "Electricians", "IT Support", "HVAC Specialists"}

var usersData = []struct {
	Email string
	Name  string
	Seed  string
	Role  constants.Role
	Team  string
}{
	{Email: "manager@gearguard.com", Name: "Sarah Johnson", Seed: "Sarah", Role: constants.RoleManager},
	{Email: "mike@gearguard.com", Name: "Mike Chen", Seed: "Mike", Role: constants.RoleTechnician, Team: "Mechanics"},
	{Email: "emma@gearguard.com", Name: "Emma Wilson", Seed: "Emma", Role: constants.RoleTechnician, Team: "Electricians"},
	{Email: "john@gearguard.com", Name: "John Smith", Seed: "John", Role: constants.RoleTechnician, Team: "IT Support"},
	{Email: "alex@gearguard.com", Name: "Alex Rodriguez", Seed: "Alex", Role: constants.RoleTechnician, Team: "HVAC Specialists"},
	{Email: "user@gearguard.com", Name: "Bob Anderson", Seed: "Bob", Role: constants.RoleUser},
	{Email: "lisa@gearguard.com", Name: "Lisa Park", Seed: "Lisa", Role: constants.RoleUser},
}

var equipmentData = []struct {
	Name             string
	SerialNumber     string
	Department       string
	AssignedEmployee string
	PurchaseDate     string
	WarrantyEndDate  string
	Location         string
	Team             string
}{
	{"CNC Milling Machine", "CNC-2024-001", "Manufacturing", "Tom Hardy", "2023-03-15", "2026-03-15", "Building A - Floor 1", "Mechanics"},
	{"Industrial Generator", "GEN-2024-002", "Power Systems", "Jane Doe", "2022-08-20", "2025-08-20", "Building B - Basement", "Electricians"},
	{"Dell PowerEdge R750", "SRV-2024-003", "IT Infrastructure", "", "2024-01-10", "2027-01-10", "Server Room - Rack 5", "IT Support"},
	{"Carrier HVAC Unit", "HVAC-2024-004", "Facilities", "", "2021-05-01", "2024-05-01", "Building A - Rooftop", "HVAC Specialists"},
	{"Hydraulic Press", "HYD-2024-005", "Manufacturing", "Mark Wilson", "2020-11-30", "2023-11-30", "Building A - Floor 2", "Mechanics"},
	{"Forklift Electric", "FLT-2024-006", "Warehouse", "Carlos Martinez", "2023-07-15", "2026-07-15", "Warehouse - Zone B", "Mechanics"},
}

// Смещения в днях считаются от момента запуска сидера.
var requestsData = []struct {
	Subject        string
	Description    string
	Type           constants.RequestType
	Priority       int
	Stage          constants.RequestStage
	Serial         string
	CreatedBy      string
	Technician     string
	CreatedDaysAgo int
	ScheduledIn    *int
	Duration       *float64
	Notes          string
}{
	{
		Subject: "CNC Machine Making Strange Noise", Description: "The CNC machine has been making a grinding noise during operation. Needs immediate inspection.",
		Type: constants.TypeCorrective, Priority: 3, Stage: constants.StageNew, Serial: "CNC-2024-001", CreatedBy: "user@gearguard.com", CreatedDaysAgo: 3,
	},
	{
		Subject: "Generator Voltage Fluctuation", Description: "The generator output voltage is fluctuating. Technician is investigating.",
		Type: constants.TypeCorrective, Priority: 4, Stage: constants.StageInProgress, Serial: "GEN-2024-002", CreatedBy: "lisa@gearguard.com", Technician: "emma@gearguard.com",
	},
	{
		Subject: "Server Memory Error", Description: "Memory module replaced. Server restored to normal operation.",
		Type: constants.TypeCorrective, Priority: 4, Stage: constants.StageRepaired, Serial: "SRV-2024-003", CreatedBy: "manager@gearguard.com", Technician: "john@gearguard.com",
		Duration: floatPtr(2.5), Notes: "Replaced faulty RAM module in slot 3. Tested and verified system stability.",
	},
	{
		Subject: "Quarterly HVAC Filter Replacement", Description: "Scheduled quarterly maintenance - replace filters and check refrigerant levels.",
		Type: constants.TypePreventive, Priority: 2, Stage: constants.StageNew, Serial: "HVAC-2024-004", CreatedBy: "manager@gearguard.com", ScheduledIn: intPtr(7),
	},
	{
		Subject: "Hydraulic Press Oil Change", Description: "Monthly oil change and hydraulic system inspection.",
		Type: constants.TypePreventive, Priority: 2, Stage: constants.StageNew, Serial: "HYD-2024-005", CreatedBy: "manager@gearguard.com", Technician: "mike@gearguard.com", ScheduledIn: intPtr(1),
	},
	{
		Subject: "Forklift Battery Not Charging", Description: "The forklift battery is not holding charge. May need battery replacement.",
		Type: constants.TypeCorrective, Priority: 3, Stage: constants.StageNew, Serial: "FLT-2024-006", CreatedBy: "user@gearguard.com",
	},
	{
		Subject: "Annual CNC Calibration", Description: "Annual calibration check for precision machining.",
		Type: constants.TypePreventive, Priority: 2, Stage: constants.StageInProgress, Serial: "CNC-2024-001", CreatedBy: "manager@gearguard.com", Technician: "mike@gearguard.com", ScheduledIn: intPtr(-1),
	},
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
