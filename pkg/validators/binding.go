package validators

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register adds the custom tags used in request structs to gin's validator.
// It's safe to call more than once.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return UsernameValidator(fl.Field().String()) == nil
	}); err != nil {
		return err
	}

	return v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return PasswordValidator(fl.Field().String()) == nil
	})
}
