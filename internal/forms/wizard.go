// Package forms implements the multi-step input flows. Each step validates
// its own fields and blocks forward navigation until it is clean; nothing
// invalid is ever sent to the server.
package forms

import (
	"github.com/princekumarofficial/challenge-tracker/internal/utils/validate"
)

// FieldErrors maps a field to the message shown next to it
type FieldErrors = validate.FieldErrors

// Step is one page of a wizard
type Step[F any] struct {
	Title    string
	Validate func(data *F) FieldErrors
}

// Wizard walks ordered steps over a shared form value
type Wizard[F any] struct {
	steps   []Step[F]
	data    F
	current int
	errors  FieldErrors
}

func NewWizard[F any](data F, steps ...Step[F]) *Wizard[F] {
	return &Wizard[F]{steps: steps, data: data}
}

// Data returns the form value for editing
func (w *Wizard[F]) Data() *F {
	return &w.data
}

func (w *Wizard[F]) Step() int {
	return w.current
}

func (w *Wizard[F]) StepCount() int {
	return len(w.steps)
}

func (w *Wizard[F]) Title() string {
	return w.steps[w.current].Title
}

func (w *Wizard[F]) Last() bool {
	return w.current == len(w.steps)-1
}

// Errors returns the messages from the last validation of the current step
func (w *Wizard[F]) Errors() FieldErrors {
	return w.errors
}

// Check validates step against data
func (w *Wizard[F]) Check(step int, data *F) FieldErrors {
	if step < 0 || step >= len(w.steps) || w.steps[step].Validate == nil {
		return nil
	}
	errs := w.steps[step].Validate(data)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// CanAdvance reports whether data passes every rule of step
func (w *Wizard[F]) CanAdvance(step int, data F) bool {
	return w.Check(step, &data) == nil
}

// Next validates the current step and moves forward when it is clean. On
// the last step a clean validation leaves the wizard where it is.
func (w *Wizard[F]) Next() bool {
	w.errors = w.Check(w.current, &w.data)
	if w.errors != nil {
		return false
	}
	if !w.Last() {
		w.current++
	}
	return true
}

// Back moves to the previous step without validating
func (w *Wizard[F]) Back() {
	if w.current > 0 {
		w.current--
	}
	w.errors = nil
}

// ClearError drops the message for field, as when the user edits it
func (w *Wizard[F]) ClearError(field string) {
	delete(w.errors, field)
}

// Validate checks every step and returns the first failing step and its
// errors, or -1 when the whole form is valid
func (w *Wizard[F]) Validate() (int, FieldErrors) {
	for i := range w.steps {
		if errs := w.Check(i, &w.data); errs != nil {
			return i, errs
		}
	}
	return -1, nil
}
