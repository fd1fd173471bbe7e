package validation

import (
	"errors"
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
// Field names in errors are the JSON names.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})

	return v
}

// createOrderStructValidation enforces the fields whose presence depends on other fields.
func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)

	if !req.UseSameAddress && req.BillingAddress == nil {
		sl.ReportError(req.BillingAddress, "billing_address", "BillingAddress", "required_unless_same_address", "")
	}
	if req.Token == "" && req.Cart == nil {
		sl.ReportError(req.Cart, "cart", "Cart", "required_without_token", "")
	}
}

// Fields flattens validation errors into field -> failed rule, e.g. "customer.email": "email".
// Errors that are not validation errors are reported under "error".
func Fields(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			ns := fe.Namespace()
			// drop the top-level struct name
			if i := strings.Index(ns, "."); i >= 0 {
				ns = ns[i+1:]
			}
			out[ns] = fe.Tag()
		}
	} else if err != nil {
		out["error"] = err.Error()
	}
	return out
}
