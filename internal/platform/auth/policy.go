package auth

import "github.com/google/uuid"

// Action classifies what the caller wants to do with a loaded resource.
type Action int

const (
	ActionRead Action = iota
	ActionMutate
)

// Decision is the tagged result of an authorization check. Handlers must
// branch on it explicitly; there is no error-as-control-flow path.
type Decision int

const (
	Deny Decision = iota
	Allow
)

// Resource is anything the ownership policy can evaluate. Owner references
// always come from the loaded record, never from client-supplied fields.
type Resource interface {
	// OwnerPatient returns the patient account that owns the resource.
	OwnerPatient() uuid.UUID
	// OwnerDoctor returns the assigned doctor, if any.
	OwnerDoctor() (uuid.UUID, bool)
}

// LabManaged marks resources the lab role may operate on without an
// ownership relation (test bookings and the catalog, not clinical records).
type LabManaged interface {
	LabManaged() bool
}

// Authorize decides whether actor may perform action on res. Admin bypasses
// ownership entirely; lab bypasses only for LabManaged resources. Patients
// and doctors are allowed only when they match the resource's own owner
// references.
func Authorize(actor Actor, res Resource, action Action) Decision {
	switch actor.Role {
	case RoleAdmin:
		return Allow
	case RoleLab:
		if lm, ok := res.(LabManaged); ok && lm.LabManaged() {
			return Allow
		}
		return Deny
	case RolePatient:
		if res.OwnerPatient() == actor.ID {
			return Allow
		}
		return Deny
	case RoleDoctor:
		// The doctor constraint applies only once a doctor is assigned;
		// resources without one (unassigned test bookings) stay readable
		// by clinical staff.
		doctorID, assigned := res.OwnerDoctor()
		if !assigned || doctorID == actor.ID {
			return Allow
		}
		return Deny
	default:
		return Deny
	}
}
