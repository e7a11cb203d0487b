package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterValidators registers the contact form rules as validator tags so
// request structs can declare them, e.g. `validate:"contact_phone"`.
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("contact_name", ruleFunc(NameError))
	_ = v.RegisterValidation("contact_email", ruleFunc(EmailError))
	_ = v.RegisterValidation("contact_phone", ruleFunc(ComposedPhoneError))
	_ = v.RegisterValidation("contact_msg", ruleFunc(MessageError))
	_ = v.RegisterValidation("vin", ruleFunc(VINError))
}

// New returns a validator that reports fields by their json name and knows
// the contact form tags.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	RegisterValidators(v)
	return v
}

func ruleFunc(rule func(string) string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return rule(fl.Field().String()) == ""
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
