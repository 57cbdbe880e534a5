// Package inputval validates decoded JSON request bodies using
// waffle/pantry/validate.
//
// Tag an input struct with validate and label tags, decode the body into
// it, and answer the first message:
//
//	type registerInput struct {
//	    Name  string `json:"name" validate:"max=100" label:"Name"`
//	    Email string `json:"email" validate:"emailaddr,max=254" label:"Email"`
//	}
//
//	if res := inputval.Validate(in); res.HasErrors() {
//	    jsonutil.Message(w, http.StatusBadRequest, res.First())
//	    return
//	}
//
// Besides the pantry/validate built-ins (required, min, max, oneof, email)
// three rules are registered: emailaddr, httpurl and objectid.
package inputval

import (
	"net/mail"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string // json name, or Go name when untagged
	Label   string
	Message string
}

// Result collects every failed rule for one struct.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// customRules are string predicates registered on the shared validator.
var customRules = map[string]func(string) bool{
	"emailaddr": IsValidEmail,
	"httpurl":   IsValidHTTPURL,
	"objectid":  IsValidObjectID,
}

var (
	shared     *validate.Validator
	sharedOnce sync.Once
)

func validator() *validate.Validator {
	sharedOnce.Do(func() {
		shared = validate.New(validate.WithStopOnFirstError())
		for name, ok := range customRules {
			ok := ok
			shared.RegisterRuleFunc(name, func(value any) bool {
				s, isString := value.(string)
				return isString && ok(s)
			}, name)
		}
	})
	return shared
}

// Validate checks s (a struct or pointer to struct) against its validate
// tags. It never returns nil.
func Validate(s any) *Result {
	res := &Result{}
	err := validator().Struct(s)
	if err == nil {
		return res
	}
	errs, ok := err.(validate.Errors)
	if !ok {
		return res
	}

	labels := labelsFor(s)
	for _, e := range errs {
		label := labels[e.Field]
		if label == "" {
			label = e.Field
		}
		res.Errors = append(res.Errors, FieldError{
			Field:   e.Field,
			Label:   label,
			Message: message(label, e.Rule, e.Param),
		})
	}
	return res
}

// labelCache maps a reflect.Type to its labels keyed by json name.
var labelCache sync.Map

// labelsFor returns the label tags of s keyed by json name.
func labelsFor(s any) map[string]string {
	t := reflect.TypeOf(s)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	if cached, ok := labelCache.Load(t); ok {
		return cached.(map[string]string)
	}

	labels := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		label := f.Tag.Get("label")
		if label == "" {
			continue
		}
		name := f.Name
		if j, _, _ := strings.Cut(f.Tag.Get("json"), ","); j != "" && j != "-" {
			name = j
		}
		labels[name] = label
	}
	labelCache.Store(t, labels)
	return labels
}

// message renders a client-facing sentence for a failed rule.
func message(label, rule, param string) string {
	switch rule {
	case "required":
		return label + " is required."
	case "email", "emailaddr":
		return "A valid email address is required."
	case "oneof", "enum":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "min":
		return label + " must be at least " + param + " characters."
	case "max":
		return label + " must be at most " + param + " characters."
	case "httpurl":
		return label + " must be a valid URL starting with http:// or https://."
	case "objectid":
		return label + " is not a valid ID."
	}
	return label + " is invalid."
}

// IsValidEmail reports whether s is a bare RFC 5322 address (no display
// name). Surrounding whitespace is ignored.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// IsValidHTTPURL reports whether s is an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidObjectID reports whether s is a 24-digit hex ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}
