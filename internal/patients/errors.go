package patients

import "errors"

// ErrProfileMissing means the signed-in patient has no profile row.
var ErrProfileMissing = errors.New("patients: profile not found")

// MissingProfileMessage is shown when a patient session has no profile.
const MissingProfileMessage = "We could not find your patient profile. Please contact support"

// MissingProfileText is MissingProfileMessage ending with the clinic support contact when one is known.
func MissingProfileText(contact string) string {
	if contact == "" {
		return MissingProfileMessage + "."
	}
	return MissingProfileMessage + " at " + contact + "."
}
