package lifecycle

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/erazemk/packtrack/internal/apperr"
)

// NewPack describes a pack to create.
type NewPack struct {
	Brand     string `validate:"required"`
	Category  string `validate:"required"`
	Price     string `validate:"required"`
	ItemCount int    `validate:"gt=0"`
	Images    [][]byte
}

// PackUpdate describes the new state of an existing pack.
type PackUpdate struct {
	Brand     string `validate:"required"`
	Category  string `validate:"required"`
	Price     string `validate:"required"`
	ItemCount int    `validate:"gt=0"`
}

type money struct {
	Value decimal.Decimal `validate:"gt=0"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// check runs struct validation and reports the first failing field.
func (c *Coordinator) check(s any) error {
	err := c.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return apperr.Validationf("%s is required", strings.ToLower(fe.Field()))
		case "gt":
			return apperr.Validationf("%s must be greater than %s", strings.ToLower(fe.Field()), fe.Param())
		}
		return apperr.Validationf("%s is invalid", strings.ToLower(fe.Field()))
	}
	return apperr.Validationf("invalid input: %v", err)
}

// ParseAmount parses a decimal money amount. Anything that is not a finite
// number is a Validation error.
func ParseAmount(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, apperr.Validationf("%s is required", field)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperr.Validationf("%s %q is not a number", field, s)
	}
	return d, nil
}

// parsePrice parses a strictly positive price.
func (c *Coordinator) parsePrice(s string) (decimal.Decimal, error) {
	d, err := ParseAmount("price", s)
	if err != nil {
		return decimal.Zero, err
	}
	if err := c.check(money{Value: d}); err != nil {
		return decimal.Zero, apperr.Validationf("price must be greater than 0")
	}
	return d, nil
}
