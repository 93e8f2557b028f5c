package validators

import (
	"rastru/cmd/internal/utils"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

// CNPJ accepts formatted or bare CNPJs with valid check digits.
func CNPJ(fl validator.FieldLevel) bool {
	val, ok := stringField(fl, "cnpj")
	if !ok {
		return false
	}
	return utils.IsCNPJValid(utils.CleanCNPJ(val))
}

// Register adds the custom tag and reports fields by their JSON name.
func Register(validate *validator.Validate) {
	_ = validate.RegisterValidation("cnpj", CNPJ)

	validate.RegisterTagNameFunc(jsonFieldName)
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func stringField(fl validator.FieldLevel, tag string) (string, bool) {
	field := fl.Field()
	if field.Kind() != reflect.String {
		log.Warnf("validator '%s' applied to non-string type: %s", tag, field.Kind().String())
		return "", false
	}
	return field.String(), true
}
