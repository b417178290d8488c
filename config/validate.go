package config

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report yaml keys in error messages.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks a system definition: struct tags first, then the rules
// tags cannot express (a stage is either modules or a system, never both; a
// filter reference has exactly one form).
func (c *SystemConfig) Validate() error {
	if err := structErr(getValidator().Struct(c)); err != nil {
		return err
	}
	for i := range c.Stages {
		st := &c.Stages[i]
		switch {
		case st.System == "" && len(st.Modules) == 0:
			return errors.Errorf("stage %d (%q): modules or system required", i, st.Name)
		case st.System != "" && len(st.Modules) > 0:
			return errors.Errorf("stage %d (%q): modules and system are mutually exclusive", i, st.Name)
		}
		for _, f := range []*FilterRef{st.PreFilter, st.PostFilter} {
			if err := f.check(); err != nil {
				return errors.Wrapf(err, "stage %d (%q)", i, st.Name)
			}
		}
	}
	return nil
}

// Validate checks every system in the file.
func (m *MultiSystemConfig) Validate() error {
	if err := structErr(getValidator().Struct(m)); err != nil {
		return err
	}
	for _, name := range sortedKeys(m.Systems) {
		cfg := m.Systems[name]
		if err := cfg.Validate(); err != nil {
			return errors.Wrapf(err, "system %q", name)
		}
	}
	return nil
}

func (f *FilterRef) check() error {
	if f == nil {
		return nil
	}
	if n := f.forms(); n != 1 {
		return errors.Errorf("filter needs exactly one of name, and, or, xor, not (got %d)", n)
	}
	for _, list := range [][]FilterRef{f.And, f.Or, f.Xor} {
		for i := range list {
			if err := list[i].check(); err != nil {
				return err
			}
		}
	}
	return f.Not.check()
}

func structErr(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validation failed")
	}
	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		messages = append(messages, e.Namespace()+": "+describe(e))
	}
	return errors.New("invalid config: " + strings.Join(messages, "; "))
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must have at least " + e.Param() + " entries"
	case "len":
		return "must have exactly " + e.Param() + " entries"
	default:
		return "is invalid"
	}
}
