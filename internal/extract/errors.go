package extract

import "errors"

var (
	// ErrSchemaTranslation indicates a schema that could not be coerced into
	// the single-argument function convention (e.g. unresolvable or cyclic
	// $ref chains).
	ErrSchemaTranslation = errors.New("schema translation failed")

	// ErrModelInvocation indicates the model call failed or the response did
	// not carry a parsable function call.
	ErrModelInvocation = errors.New("model invocation failed")
)
