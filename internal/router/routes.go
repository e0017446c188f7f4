package router

// Staff roles issued by the clinic API.
const (
	RoleAdmin      = "ADMIN"
	RoleDoctor     = "DOCTOR"
	RoleNurse      = "NURSE"
	RoleCashier    = "CASHIER"
	RolePharmacist = "PHARMACIST"
)

// ClinicRoutes is the console's route configuration.
func ClinicRoutes() []Route {
	public := Meta{Public: true}
	return []Route{
		{Name: "login", Path: "/login", Meta: public},
		{Name: "home", Path: "/", Meta: public},
		{Name: "about", Path: "/about", Meta: public},
		{Name: "specialties", Path: "/specialties", Meta: public},
		{Name: "booking", Path: "/booking", Meta: public},
		{
			Name: "dashboard",
			Path: "/dashboard",
			Meta: Meta{RequiresAuth: true},
			Children: []Route{
				{Name: "appointment-requests", Path: "appointment-requests"},
				{Name: "appointments", Path: "appointments"},
				{Name: "patients", Path: "patients"},
				{Name: "doctors", Path: "doctors", Meta: Meta{Roles: []string{RoleAdmin}}},
				{Name: "schedules", Path: "schedules", Meta: Meta{Roles: []string{RoleAdmin}}},
				{Name: "visits", Path: "visits"},
				{Name: "medications", Path: "medications", Meta: Meta{Roles: []string{RoleAdmin, RolePharmacist}}},
				{Name: "services", Path: "services"},
				{Name: "billing", Path: "billing", Meta: Meta{Roles: []string{RoleAdmin, RoleCashier}}},
			},
		},
		{Name: "not-found", Path: "/*", Meta: public},
	}
}

// ClinicTable builds the table for ClinicRoutes.
func ClinicTable() *Table {
	return MustTable(ClinicRoutes())
}
