package demoapi

import (
	"fmt"
	"math"
	"net/mail"
	"strings"
)

// validationErrors maps fields to messages, serialized as arrays.
type validationErrors map[string][]string

func (v validationErrors) add(field, format string, args ...any) {
	v[field] = append(v[field], fmt.Sprintf(format, args...))
}

// decodeUser validates input and applies it on top of base. With partial
// set, absent fields keep base's values.
func decodeUser(input map[string]any, base User, partial bool) (User, validationErrors) {
	errs := validationErrors{}
	u := base

	if raw, ok := input["name"]; ok || !partial {
		name, _ := raw.(string)
		name = strings.TrimSpace(name)
		switch {
		case name == "":
			errs.add("name", "The name field is required.")
		case len(name) > 100:
			errs.add("name", "The name may not be greater than 100 characters.")
		default:
			u.Name = name
		}
	}

	if raw, ok := input["email"]; ok || !partial {
		email, _ := raw.(string)
		email = strings.TrimSpace(email)
		if email == "" {
			errs.add("email", "The email field is required.")
		} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			errs.add("email", "The email must be a valid email address.")
		} else {
			u.Email = email
		}
	}

	if raw, ok := input["age"]; ok {
		age, ok := raw.(float64)
		switch {
		case !ok || age != math.Trunc(age):
			errs.add("age", "The age must be an integer.")
		case age < 0 || age > 150:
			errs.add("age", "The age must be between 0 and 150.")
		default:
			u.Age = int(age)
		}
	}

	return u, errs
}
