package appointments

import "errors"

var (
	ErrPatientRequired    = errors.New("appointments: patient is required")
	ErrProviderRequired   = errors.New("appointments: provider is required")
	ErrInvalidDuration    = errors.New("appointments: duration must be 15, 30, 45 or 60 minutes")
	ErrInvalidType        = errors.New("appointments: unknown appointment type")
	ErrInvalidStatus      = errors.New("appointments: unknown appointment status")
	ErrStatusRequiresEdit = errors.New("appointments: status can only be set when editing")
	ErrDeleteRequiresEdit = errors.New("appointments: delete requires an existing appointment")
	ErrMissingAnchor      = errors.New("appointments: anchor time is required")
)

// IsValidation reports whether err came from editor input checks.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrPatientRequired, ErrProviderRequired, ErrInvalidDuration, ErrInvalidType,
		ErrInvalidStatus, ErrStatusRequiresEdit, ErrDeleteRequiresEdit, ErrMissingAnchor,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
