package checkout

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/indiancoinstore/coinstore-backend/internal/app/model"
)

// ValidationError carries one message per rejected form field
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "invalid customer details: " + strings.Join(parts, "; ")
}

// messages are keyed by json field name, then by failing tag. "*" matches any tag.
var messages = map[string]map[string]string{
	"name": {
		"required": "Full name is required",
		"*":        "Name must be at least 2 characters",
	},
	"email": {
		"required": "Email is required",
		"*":        "Invalid email address",
	},
	"phone": {
		"required": "Phone number is required",
		"*":        "Phone number must be 10 digits",
	},
	"city": {
		"*": "City is required",
	},
	"address": {
		"required": "Address is required",
		"*":        "Address must be at least 10 characters",
	},
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func customerValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// share the tags gin binds with
		validate.SetTagName("binding")
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// NormalizeCustomer trims surrounding whitespace from every field
func NormalizeCustomer(c model.Customer) model.Customer {
	return model.Customer{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.TrimSpace(c.Email),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
		City:    strings.TrimSpace(c.City),
	}
}

// ValidateCustomer returns nil or a *ValidationError
func ValidateCustomer(c model.Customer) error {
	err := customerValidator().Struct(c)
	if err == nil {
		return nil
	}
	return FieldErrors(err)
}

// FieldErrors maps validator failures, including those raised by gin binding,
// onto the checkout form messages. Other errors are returned unchanged.
func FieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if _, seen := fields[field]; seen {
			continue
		}
		fields[field] = messageFor(field, fe.Tag())
	}
	return &ValidationError{Fields: fields}
}

func messageFor(field, tag string) string {
	byTag, ok := messages[field]
	if !ok {
		return fmt.Sprintf("%s is invalid", field)
	}
	if msg, ok := byTag[tag]; ok {
		return msg
	}
	return byTag["*"]
}
