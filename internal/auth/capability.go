package auth

import (
	"fmt"

	"github.com/geoflow/geoflow/internal/domain"
)

type capabilityKind int

const (
	capIsAdmin capabilityKind = iota
	capCreateDataSource
	capUpdateDataSource
	capCreateLoadInstance
	capUpdateLoadInstance
	capCollect
	capLoad
	capCheck
)

// Capability is a closed set of mutation classes the gate can evaluate.
// UpdateLoadInstanceAsParticipant carries the targeted load instance id; the
// other variants carry no payload.
type Capability struct {
	kind           capabilityKind
	loadInstanceID int64
}

func IsAdmin() Capability              { return Capability{kind: capIsAdmin} }
func CreateDataSource() Capability     { return Capability{kind: capCreateDataSource} }
func UpdateDataSource() Capability     { return Capability{kind: capUpdateDataSource} }
func CreateLoadInstance() Capability   { return Capability{kind: capCreateLoadInstance} }
func Collect() Capability              { return Capability{kind: capCollect} }
func Load() Capability                 { return Capability{kind: capLoad} }
func Check() Capability                { return Capability{kind: capCheck} }

// UpdateLoadInstanceAsParticipant targets one specific load instance; it also
// succeeds for users recorded as a phase user on that instance, independent
// of role.
func UpdateLoadInstanceAsParticipant(loadInstanceID int64) Capability {
	return Capability{kind: capUpdateLoadInstance, loadInstanceID: loadInstanceID}
}

// roleFor maps each capability to the single role (besides admin) that grants
// it. Update-data-source and collect intentionally share the collection role.
var roleFor = map[capabilityKind]string{
	capCreateDataSource:   domain.RoleCreateDataSource,
	capUpdateDataSource:   domain.RoleCollection,
	capCreateLoadInstance: domain.RoleCreateLoadInstance,
	capCollect:            domain.RoleCollection,
	capLoad:               domain.RoleLoad,
	capCheck:              domain.RoleCheck,
}

func (c Capability) String() string {
	switch c.kind {
	case capIsAdmin:
		return "IsAdmin"
	case capCreateDataSource:
		return "CreateDataSource"
	case capUpdateDataSource:
		return "UpdateDataSource"
	case capCreateLoadInstance:
		return "CreateLoadInstance"
	case capUpdateLoadInstance:
		return fmt.Sprintf("UpdateLoadInstanceAsParticipant(%d)", c.loadInstanceID)
	case capCollect:
		return "Collect"
	case capLoad:
		return "Load"
	case capCheck:
		return "Check"
	}
	return "Unknown"
}

// AuthorizationDenied reports a gate denial for a specific user and
// capability. Denials are explicit failures, never silent no-ops.
type AuthorizationDenied struct {
	UserID     int64
	Capability Capability
}

func (e AuthorizationDenied) Error() string {
	return fmt.Sprintf("user %d is not authorized for %s", e.UserID, e.Capability)
}
