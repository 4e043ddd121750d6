package submission

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrValidation              = errors.New("validation failed")
	ErrUnknownField            = errors.New("unknown field")
	ErrFieldType               = errors.New("wrong value type")
	ErrFieldNotApplicable      = errors.New("field does not apply to this post type")
	ErrInvalidValue            = errors.New("invalid value")
	ErrImageTooLarge           = errors.New("image too large")
	ErrImageWrongType          = errors.New("file is not an image")
	ErrImageDecode             = errors.New("image cannot be decoded")
	ErrFreePostUnavailable     = errors.New("free post unavailable")
	ErrPaymentInitiationFailed = errors.New("payment initiation failed")
	ErrSubmissionRejected      = errors.New("submission rejected")
	ErrTransport               = errors.New("transport error")
	ErrSubmitInProgress        = errors.New("submission already in progress")
	ErrWorkflowClosed          = errors.New("workflow closed")
)

// ValidationErrors maps each failing field to a reason.
type ValidationErrors map[Field]string

var fieldOrder = []Field{
	FieldTitle,
	FieldDescription,
	FieldCity,
	FieldCurrency,
	FieldTier,
	FieldPrice,
	FieldCategory,
}

// Fields lists the failing fields in validation order.
func (v ValidationErrors) Fields() []Field {
	out := make([]Field, 0, len(v))
	seen := make(map[Field]bool, len(v))
	for _, f := range fieldOrder {
		if _, ok := v[f]; ok {
			out = append(out, f)
			seen[f] = true
		}
	}
	var rest []Field
	for f := range v {
		if !seen[f] {
			rest = append(rest, f)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, f := range v.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

type FreePostUnavailableError struct {
	NextEligibleAt time.Time
}

func (e *FreePostUnavailableError) Error() string {
	if e.NextEligibleAt.IsZero() {
		return "free post unavailable"
	}
	return "free post unavailable until " + e.NextEligibleAt.UTC().Format(time.RFC3339)
}

func (e *FreePostUnavailableError) Is(target error) bool {
	return target == ErrFreePostUnavailable
}

// RejectedError is a business-rule refusal returned by a remote service.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request rejected with status %d", e.StatusCode)
	}
	return e.Message
}

// UserMessage turns any workflow error into text fit to show the person filling the form.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		names := make([]string, 0, len(verrs))
		for _, f := range verrs.Fields() {
			names = append(names, string(f))
		}
		return "Please check the form: " + strings.Join(names, ", ")
	}

	var free *FreePostUnavailableError
	if errors.As(err, &free) {
		if free.NextEligibleAt.IsZero() {
			return "You have already used your free listing. Choose a paid tier or try again later."
		}
		return "Your next free listing is available on " + free.NextEligibleAt.Local().Format("02.01.2006 15:04") + "."
	}

	var rejected *RejectedError
	switch {
	case errors.Is(err, ErrImageTooLarge):
		return "The image must be 5 MB or smaller."
	case errors.Is(err, ErrImageWrongType):
		return "Only image files can be attached."
	case errors.Is(err, ErrPaymentInitiationFailed):
		return "Could not start the payment for the selected tier. Please try again."
	case errors.Is(err, ErrSubmissionRejected) && errors.As(err, &rejected) && rejected.Message != "":
		return rejected.Message
	case errors.Is(err, ErrSubmissionRejected):
		return "The listing was rejected. Please review it and try again."
	case errors.Is(err, ErrTransport):
		return "Network error. Please check your connection and try again."
	case errors.Is(err, ErrSubmitInProgress):
		return "Your listing is already being submitted."
	case errors.Is(err, ErrWorkflowClosed):
		return "This form has been closed."
	case errors.As(err, &rejected) && rejected.Message != "":
		return rejected.Message
	}
	return "Something went wrong. Please try again."
}
