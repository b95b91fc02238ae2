package dto

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// Validate checks a request body against its struct tags. Handlers reject
// failures before anything reaches the lifecycle engine; the engine never
// re-validates syntactic shape.
func Validate(req interface{}) error {
	return validate.Struct(req)
}
