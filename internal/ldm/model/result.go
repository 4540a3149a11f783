package model

import "errors"

// Sentinel errors for every failure kind an LDM operation can report.
// Callers branch with errors.Is; process boundaries map them to a ResultCode.
var (
	// ErrNotRegistered means the application id has no active registration
	// for the role the operation requires.
	ErrNotRegistered = errors.New("application not registered")

	// ErrDuplicateRegistration means the application id already holds an
	// active registration for that role.
	ErrDuplicateRegistration = errors.New("application already registered")

	// ErrPermissionDenied means a requested type tag is outside the
	// application's granted permissions.
	ErrPermissionDenied = errors.New("message type not permitted for application")

	// ErrInvalidParameters covers malformed requests: missing payload,
	// negative validity or notify interval, unknown filter operators.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrSubscriptionFailed means the subscription could not be recorded for
	// a reason other than the above.
	ErrSubscriptionFailed = errors.New("subscription failed")

	// ErrStorage wraps storage backend failures. Fatal only for the single
	// operation in progress, never for the LDM instance.
	ErrStorage = errors.New("storage backend failure")
)

// ResultCode is the closed result enumeration exposed at process boundaries
// (admin API, MQTT bridge). In-process code uses the sentinel errors.
type ResultCode int

const (
	ResultSuccess ResultCode = iota
	ResultNotRegistered
	ResultDuplicateRegistration
	ResultPermissionDenied
	ResultInvalidParameters
	ResultSubscriptionFailed
)

var resultNames = map[ResultCode]string{
	ResultSuccess:               "Success",
	ResultNotRegistered:         "NotRegistered",
	ResultDuplicateRegistration: "DuplicateRegistration",
	ResultPermissionDenied:      "PermissionDenied",
	ResultInvalidParameters:     "InvalidParameters",
	ResultSubscriptionFailed:    "SubscriptionFailed",
}

func (c ResultCode) String() string {
	if name, ok := resultNames[c]; ok {
		return name
	}
	return "Unknown"
}

// CodeOf maps an operation error to its ResultCode. Nil is Success. Errors
// wrapping no known sentinel (storage failures included) map to the generic
// SubscriptionFailed code, the enumeration's only unspecific failure.
func CodeOf(err error) ResultCode {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, ErrNotRegistered):
		return ResultNotRegistered
	case errors.Is(err, ErrDuplicateRegistration):
		return ResultDuplicateRegistration
	case errors.Is(err, ErrPermissionDenied):
		return ResultPermissionDenied
	case errors.Is(err, ErrInvalidParameters):
		return ResultInvalidParameters
	default:
		return ResultSubscriptionFailed
	}
}
