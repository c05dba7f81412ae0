// Package tasmi holds the pure rules of the Tasmi' exam: score evaluation and
// the status transitions of a registration.
package tasmi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/tahfidz-api/internal/models"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

// Scores are the four examiner components, each in [0, 100].
type Scores struct {
	Fluency *float64 `json:"fluency" validate:"required,gte=0,lte=100"`
	Tajwid  *float64 `json:"tajwid" validate:"required,gte=0,lte=100"`
	Adab    *float64 `json:"adab" validate:"required,gte=0,lte=100"`
	Rhythm  *float64 `json:"rhythm" validate:"required,gte=0,lte=100"`
}

// Evaluation is the derived outcome of a set of scores.
type Evaluation struct {
	FinalScore float64
	Predicate  models.Predicate
}

var validate = validator.New()

// Validate checks that every component is present and within range.
func (s Scores) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scores")
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		if fe.Tag() == "required" {
			msgs = append(msgs, fmt.Sprintf("%s score is required", field))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s score must be between 0 and 100", field))
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, strings.Join(msgs, "; "))
}

// Evaluate averages the components and classifies the result.
func Evaluate(s Scores) (Evaluation, error) {
	if err := s.Validate(); err != nil {
		return Evaluation{}, err
	}
	final := (*s.Fluency + *s.Tajwid + *s.Adab + *s.Rhythm) / 4
	return Evaluation{FinalScore: final, Predicate: Classify(final)}, nil
}

// Classify maps a final score to its predicate. Lower bounds are inclusive.
func Classify(final float64) models.Predicate {
	switch {
	case final >= 90:
		return models.PredicateMumtaz
	case final >= 80:
		return models.PredicateJayyidJiddan
	case final >= 70:
		return models.PredicateJayyid
	default:
		return models.PredicateMaqbul
	}
}
