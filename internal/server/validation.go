package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"diet-planner/internal/planner"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// optionsRequest is the wire shape of planner.Options. Pointers tell a
// missing field apart from a zero value.
type optionsRequest struct {
	User              *string  `json:"user" validate:"required,min=1"`
	DietaryPreference *string  `json:"dietaryPreference" validate:"required,min=1"`
	HealthGoal        *string  `json:"healthGoal" validate:"required,min=1"`
	NumDays           *int     `json:"numDays" validate:"required,min=1"`
	Allergies         []string `json:"allergies" validate:"required"`
	BudgetConstraint  *float64 `json:"budgetConstraint"`
}

func (r optionsRequest) toOptions() planner.Options {
	opts := planner.Options{
		Allergies:        r.Allergies,
		BudgetConstraint: r.BudgetConstraint,
	}
	if r.User != nil {
		opts.User = *r.User
	}
	if r.DietaryPreference != nil {
		opts.DietaryPreference = *r.DietaryPreference
	}
	if r.HealthGoal != nil {
		opts.HealthGoal = *r.HealthGoal
	}
	if r.NumDays != nil {
		opts.NumDays = *r.NumDays
	}
	return opts
}

// FieldError is one item of a 422 response.
type FieldError struct {
	Field    string `json:"field"`
	Msg      string `json:"msg"`
	Location string `json:"location"`
}

type validationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}

var missingMessages = map[string]string{
	"user":              "User field is required.",
	"dietaryPreference": "Dietary preference field is required.",
	"healthGoal":        "Health goal field is required.",
	"numDays":           "Number of days field is required.",
	"allergies":         "Allergies must be an array.",
}

var typeMessages = map[string]string{
	"user":              "User must be a string.",
	"dietaryPreference": "Dietary preference must be a string.",
	"healthGoal":        "Health goal must be a string.",
	"numDays":           "Number of days must be a positive integer.",
	"allergies":         "Allergies must be an array.",
	"budgetConstraint":  "Budget constraint must be a number.",
	"dayNumber":         "Day number must be a positive integer.",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindOptions reads options from the JSON body and, for GET requests, from
// query parameters, which take precedence. Every invalid field is reported;
// only a body that is not a JSON object stops binding early.
func (s *Server) bindOptions(c echo.Context) (planner.Options, []FieldError) {
	var req optionsRequest
	var errs []FieldError

	if hasBody(c.Request()) {
		var raw map[string]json.RawMessage
		if err := (&echo.DefaultBinder{}).BindBody(c, &raw); err != nil {
			return planner.Options{}, []FieldError{bodyError(err)}
		}
		errs = append(errs, decodeFields(raw, &req)...)
	}

	queryFields := map[string]bool{}
	if c.Request().Method == http.MethodGet {
		errs = append(errs, bindQuery(c, &req, queryFields)...)
	}

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return planner.Options{}, []FieldError{{Field: "", Msg: err.Error(), Location: "body"}}
		}
		for _, fe := range verrs {
			field := fe.Field()
			if hasFieldError(errs, field) {
				continue
			}
			msg := missingMessages[field]
			if fe.Tag() == "min" && field == "numDays" {
				msg = typeMessages[field]
			}
			if msg == "" {
				msg = fe.Error()
			}
			errs = append(errs, FieldError{Field: field, Msg: msg, Location: location(field, queryFields)})
		}
	}

	if len(errs) > 0 {
		return planner.Options{}, errs
	}
	return req.toOptions(), nil
}

// decodeFields unmarshals each known body field on its own so one wrongly
// typed value does not hide problems with the others. A field that fails to
// decode is left unset and reported with its type message.
func decodeFields(raw map[string]json.RawMessage, req *optionsRequest) []FieldError {
	targets := []struct {
		name string
		dst  any
	}{
		{"user", &req.User},
		{"dietaryPreference", &req.DietaryPreference},
		{"healthGoal", &req.HealthGoal},
		{"numDays", &req.NumDays},
		{"allergies", &req.Allergies},
		{"budgetConstraint", &req.BudgetConstraint},
	}

	var errs []FieldError
	for _, t := range targets {
		value, ok := raw[t.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, t.dst); err != nil {
			errs = append(errs, FieldError{Field: t.name, Msg: typeMessages[t.name], Location: "body"})
		}
	}
	return errs
}

func hasBody(r *http.Request) bool {
	return r.ContentLength > 0 || len(r.TransferEncoding) > 0
}

// bodyError turns a JSON decoding failure into a field error where the
// offending field is known.
func bodyError(err error) FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if i := strings.Index(field, "."); i >= 0 {
			field = field[:i]
		}
		msg, ok := typeMessages[field]
		if !ok {
			msg = "Invalid value."
		}
		return FieldError{Field: field, Msg: msg, Location: "body"}
	}
	return FieldError{Field: "", Msg: "Malformed JSON body.", Location: "body"}
}

func bindQuery(c echo.Context, req *optionsRequest, present map[string]bool) []FieldError {
	params := c.QueryParams()
	for name := range params {
		present[name] = true
	}

	b := echo.QueryParamsBinder(c)
	if params.Has("user") {
		req.User = new(string)
		b.String("user", req.User)
	}
	if params.Has("dietaryPreference") {
		req.DietaryPreference = new(string)
		b.String("dietaryPreference", req.DietaryPreference)
	}
	if params.Has("healthGoal") {
		req.HealthGoal = new(string)
		b.String("healthGoal", req.HealthGoal)
	}
	if params.Has("numDays") {
		req.NumDays = new(int)
		b.Int("numDays", req.NumDays)
	}
	if params.Has("allergies") {
		req.Allergies = []string{}
		for _, v := range params["allergies"] {
			for _, a := range strings.Split(v, ",") {
				if a = strings.TrimSpace(a); a != "" {
					req.Allergies = append(req.Allergies, a)
				}
			}
		}
	}
	if params.Has("budgetConstraint") {
		req.BudgetConstraint = new(float64)
		b.Float64("budgetConstraint", req.BudgetConstraint)
	}

	var errs []FieldError
	for _, err := range b.BindErrors() {
		var bindErr *echo.BindingError
		if !errors.As(err, &bindErr) {
			continue
		}
		msg, ok := typeMessages[bindErr.Field]
		if !ok {
			msg = "Invalid value."
		}
		errs = append(errs, FieldError{Field: bindErr.Field, Msg: msg, Location: "query"})
	}
	return errs
}

func location(field string, query map[string]bool) string {
	if query[field] {
		return "query"
	}
	return "body"
}

func hasFieldError(errs []FieldError, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}
