package sentinel

var _ error = Error("")

// Error is a string-backed error type whose values can be declared as
// constants. Const sentinels cannot be reassigned by importers, unlike
// errors.New variables.
//
// Error is comparable, so errors.Is matches wrapped chains against a
// sentinel with plain == and no Is method is needed.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}
