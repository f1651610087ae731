package auth

import "github.com/seams-estates/seams/internal/models"

// Capability is a named permission granted by a role.
type Capability int

const (
	ManageHouses Capability = iota + 1
	ManageTenants
	ManageUsers
	ApproveUsers
	PostBills
	RecordAnyPayment
	RecordOwnPayment
	VerifyPayments
	ViewAllLedgers
	ViewReports
	AssignMaintenance
	ReportMaintenance
	WorkMaintenance
	ViewAllMaintenance
)

var capabilityNames = map[Capability]string{
	ManageHouses:       "manage_houses",
	ManageTenants:      "manage_tenants",
	ManageUsers:        "manage_users",
	ApproveUsers:       "approve_users",
	PostBills:          "post_bills",
	RecordAnyPayment:   "record_any_payment",
	RecordOwnPayment:   "record_own_payment",
	VerifyPayments:     "verify_payments",
	ViewAllLedgers:     "view_all_ledgers",
	ViewReports:        "view_reports",
	AssignMaintenance:  "assign_maintenance",
	ReportMaintenance:  "report_maintenance",
	WorkMaintenance:    "work_maintenance",
	ViewAllMaintenance: "view_all_maintenance",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return "unknown"
}

func capabilities(caps ...Capability) map[Capability]bool {
	set := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		set[c] = true
	}
	return set
}

var grants = map[models.Role]map[Capability]bool{
	models.RoleEstateAdmin: capabilities(
		ManageHouses, ManageTenants, ManageUsers, ApproveUsers,
		PostBills, RecordAnyPayment, VerifyPayments, ViewAllLedgers, ViewReports,
		AssignMaintenance, ReportMaintenance, ViewAllMaintenance,
	),
	models.RoleManager: capabilities(
		ManageHouses, ManageTenants,
		PostBills, RecordAnyPayment, VerifyPayments, ViewAllLedgers, ViewReports,
		AssignMaintenance, ReportMaintenance, ViewAllMaintenance,
	),
	models.RoleTechnician: capabilities(WorkMaintenance),
	models.RoleTenant:     capabilities(RecordOwnPayment, ReportMaintenance),
}

// Can reports whether role is granted capability c.
func Can(role models.Role, c Capability) bool {
	return grants[role][c]
}
