package http

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Message templates understand {field}, {param} and {value}.
var baseMessages = map[string]string{
	"required": "{field} is required",
	"min":      "{field} must be at least {param}",
	"max":      "{field} must be at most {param}",
	"gt":       "{field} must be greater than {param}",
	"gte":      "{field} must be greater than or equal to {param}",
	"lt":       "{field} must be less than {param}",
	"lte":      "{field} must be less than or equal to {param}",
	"oneof":    "{field} must be one of: {param}",
}

var indexSuffix = regexp.MustCompile(`\[\d+\]$`)

// Validator binds a request, fills its defaults and validates it.
// Field names in errors are the json/query names; slice elements read "sources[1]".
type Validator struct {
	v        *validator.Validate
	messages map[string]string
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})

	messages := make(map[string]string, len(baseMessages))
	for k, m := range baseMessages {
		messages[k] = m
	}
	return &Validator{v: v, messages: messages}
}

// Message overrides the text for one tag, either for every field ("lte")
// or for one field ("limit.lte"). Slice elements use the slice name.
func (v *Validator) Message(key, template string) *Validator {
	v.messages[key] = template
	return v
}

// Bind returns nil when req is bound, defaulted and valid.
func (v *Validator) Bind(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return []ValidationError{bindError(err)}
	}
	if err := defaults.Set(req); err != nil {
		return []ValidationError{{Code: "ERR_DEFAULTS", Message: err.Error()}}
	}
	if err := v.v.StructCtx(c.Request().Context(), req); err != nil {
		return v.fieldErrors(err)
	}
	return nil
}

func (v *Validator) fieldErrors(err error) []ValidationError {
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return []ValidationError{{Code: "ERR_INVALID", Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(fes))
	for _, fe := range fes {
		out = append(out, ValidationError{
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Field:   fe.Field(),
			Message: v.message(fe),
			Params:  params(fe),
		})
	}
	return out
}

func (v *Validator) message(fe validator.FieldError) string {
	field := fe.Field()
	base := indexSuffix.ReplaceAllString(field, "")

	tmpl, ok := v.messages[base+"."+fe.Tag()]
	if !ok {
		tmpl, ok = v.messages[fe.Tag()]
	}
	if !ok {
		tmpl = "{field} failed validation: " + fe.Tag()
	}
	if fe.Tag() == "oneof" {
		tmpl = strings.ReplaceAll(tmpl, "{param}", strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return strings.NewReplacer(
		"{field}", field,
		"{param}", fe.Param(),
		"{value}", fmt.Sprint(fe.Value()),
	).Replace(tmpl)
}

func params(fe validator.FieldError) map[string]interface{} {
	switch fe.Tag() {
	case "min", "gte":
		return map[string]interface{}{"min": fe.Param()}
	case "max", "lte":
		return map[string]interface{}{"max": fe.Param()}
	case "gt", "lt":
		return map[string]interface{}{"value": fe.Param()}
	case "oneof":
		return map[string]interface{}{"options": strings.Fields(fe.Param())}
	}
	return nil
}

func bindError(err error) ValidationError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return ValidationError{Code: "ERR_BIND", Message: fmt.Sprintf("malformed request: %v", he.Message)}
	}
	return ValidationError{Code: "ERR_BIND", Message: err.Error()}
}
