package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"vpnserver/internal/models"
)

var (
	profileIDPattern  = regexp.MustCompile(`^[a-zA-Z0-9-.]+$`)
	commonNamePattern = regexp.MustCompile(`^[a-fA-F0-9]{32}$`)
)

func init() {
	if err := RegisterValidators(binding.Validator); err != nil {
		panic(err)
	}
}

// RegisterValidators adds the profileid, commonname and messagetype tags to
// the gin validator.
func RegisterValidators(v binding.StructValidator) error {
	engine, ok := v.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	engine.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	rules := map[string]validator.Func{
		"profileid": func(fl validator.FieldLevel) bool {
			return profileIDPattern.MatchString(fl.Field().String())
		},
		"commonname": func(fl validator.FieldLevel) bool {
			return commonNamePattern.MatchString(fl.Field().String())
		},
		"messagetype": func(fl validator.FieldLevel) bool {
			return models.MessageType(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := engine.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

// validationError flattens binding errors to "field: rule" pairs.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid request: %w", err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid request: %s", strings.Join(parts, ", "))
}
