package types

import "errors"

// ErrValidation is wrapped by constructors in this package that reject
// malformed input. pkg/api wraps such errors in a validation-class
// luterr error; kept
// here (rather than imported from pkg/luterr) so this package has no
// outgoing dependencies of its own.
var ErrValidation = errors.New("validation")
