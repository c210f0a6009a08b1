package services

import "errors"

// Client-facing errors. Handlers map these to 4xx responses; anything
// else surfaces as a generic server error.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid activation token")
	ErrEmailInUse         = errors.New("this email is already in use")
	ErrForbidden          = errors.New("user doesn't have enough rights")
	ErrWeakPassword       = errors.New("password does not meet the minimum requirements")

	ErrInvalidUser      = errors.New("invalid user")
	ErrInvalidBuilding  = errors.New("invalid building")
	ErrInvalidApartment = errors.New("invalid apartment")
	ErrInvalidBill      = errors.New("invalid bill")
	ErrInvalidMeter     = errors.New("invalid meter")
	ErrInvalidTicket    = errors.New("invalid ticket")
	ErrInvalidFile      = errors.New("invalid file")

	// ErrManagerAssigned / ErrOwnerAssigned: the slot must be freed
	// before a new assignment.
	ErrManagerAssigned = errors.New("manager already assigned, remove the current one first")
	ErrOwnerAssigned   = errors.New("owner already assigned, remove the current one first")

	// ErrMeterReadingDecreased: a manual reading may never be lower
	// than the current stored reading.
	ErrMeterReadingDecreased = errors.New("meter reading cannot be lower than the previous reading")

	// ErrApartmentsLimit: the building already holds as many apartments
	// as its declared capacity.
	ErrApartmentsLimit = errors.New("building already has the declared number of apartments")

	// ErrApartmentsCountTooLow: apartmentsCount may never drop below
	// the number of existing active apartments.
	ErrApartmentsCountTooLow = errors.New("apartments count cannot drop below the number of existing apartments")
)

// IsClientError reports whether err should surface as a client (4xx)
// error rather than a server failure.
func IsClientError(err error) bool {
	for _, e := range []error{
		ErrInvalidCredentials, ErrInvalidToken, ErrEmailInUse, ErrWeakPassword,
		ErrInvalidUser, ErrInvalidBuilding, ErrInvalidApartment,
		ErrInvalidBill, ErrInvalidMeter, ErrInvalidTicket, ErrInvalidFile,
		ErrManagerAssigned, ErrOwnerAssigned, ErrMeterReadingDecreased,
		ErrApartmentsLimit, ErrApartmentsCountTooLow,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
