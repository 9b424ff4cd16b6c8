package exam

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

var (
	ErrInvalidQuestion = errors.New("invalid question")
	ErrInvalidSettings = errors.New("invalid settings")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		return Subject(fl.Field().String()).Valid()
	})
	return v
}

// ValidateQuestion checks that q carries an id, text, four non-empty options,
// a correct key in A-D, a known subject and a package label.
func ValidateQuestion(q Question) error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w %q: %s", ErrInvalidQuestion, q.ID, describe(err))
	}
	return nil
}

// ValidateQuestions validates every question and also rejects duplicate ids.
// All problems are reported, not only the first.
func ValidateQuestions(qs []Question) error {
	var merr *multierror.Error
	seen := make(map[string]int, len(qs))
	for i, q := range qs {
		if j, dup := seen[q.ID]; dup && q.ID != "" {
			merr = multierror.Append(merr, fmt.Errorf("questions[%d]: %w %q: duplicate of questions[%d]", i, ErrInvalidQuestion, q.ID, j))
			continue
		}
		seen[q.ID] = i
		if err := ValidateQuestion(q); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("questions[%d]: %w", i, err))
		}
	}
	return merr.ErrorOrNil()
}

func ValidateSettings(s SchoolSettings) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, describe(err))
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	var merr *multierror.Error
	for _, fe := range verrs {
		merr = multierror.Append(merr, fmt.Errorf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	merr.ErrorFormat = func(es []error) string {
		s := ""
		for i, e := range es {
			if i > 0 {
				s += "; "
			}
			s += e.Error()
		}
		return s
	}
	return merr.Error()
}
