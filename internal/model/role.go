package model

// Roles carried in the "role" JWT claim.
const (
    RoleAdmin    = "ADMIN"
    RoleStaff    = "STAFF"
    RoleCustomer = "CUSTOMER"
)

// IsStaff reports whether role is allowed to operate the floor.
func IsStaff(role string) bool {
    return role == RoleAdmin || role == RoleStaff
}

// Entities and actions checked against the permission table.
const (
    EntityReservation = "reservation"
    EntityTable       = "table"
    EntityDashboard   = "dashboard"

    ActionRead    = "read"
    ActionCreate  = "create"
    ActionConfirm = "confirm"
    ActionArrive  = "arrive"
    ActionCancel  = "cancel"
)

type permissionKey struct {
    entity string
    action string
}

// PermissionTable maps (entity, action) to the roles allowed to perform it.
// It is built once and never mutated.
type PermissionTable struct {
    rules map[permissionKey]map[string]bool
}

func newPermissionTable(rules map[[2]string][]string) PermissionTable {
    t := PermissionTable{rules: make(map[permissionKey]map[string]bool, len(rules))}
    for k, roles := range rules {
        set := make(map[string]bool, len(roles))
        for _, r := range roles {
            set[r] = true
        }
        t.rules[permissionKey{entity: k[0], action: k[1]}] = set
    }
    return t
}

// Allows reports whether role may perform action on entity.  Unknown pairs
// are denied.
func (t PermissionTable) Allows(role, entity, action string) bool {
    set, ok := t.rules[permissionKey{entity: entity, action: action}]
    return ok && set[role]
}

// Permissions is the application permission table.
var Permissions = newPermissionTable(map[[2]string][]string{
    {EntityReservation, ActionRead}:    {RoleAdmin, RoleStaff, RoleCustomer},
    {EntityReservation, ActionCreate}:  {RoleAdmin, RoleStaff, RoleCustomer},
    {EntityReservation, ActionConfirm}: {RoleAdmin, RoleStaff},
    {EntityReservation, ActionArrive}:  {RoleAdmin, RoleStaff},
    {EntityReservation, ActionCancel}:  {RoleAdmin, RoleStaff, RoleCustomer},
    {EntityTable, ActionRead}:          {RoleAdmin, RoleStaff},
    {EntityDashboard, ActionRead}:      {RoleAdmin, RoleStaff},
})
