package submission

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type PostType string

const (
	PostTypeJob     PostType = "job"
	PostTypeService PostType = "service"
)

func ParsePostType(s string) (PostType, error) {
	switch PostType(s) {
	case PostTypeJob, PostTypeService:
		return PostType(s), nil
	}
	return "", fmt.Errorf("%w: post type %q", ErrInvalidValue, s)
}

// Experience is the required work experience of a job listing. Empty means "not important".
type Experience string

const (
	ExperienceNone          Experience = "no_experience"
	ExperienceUpTo1Year     Experience = "up_to_1_year"
	Experience1To3Years     Experience = "from_1_to_3_years"
	Experience3To6Years     Experience = "from_3_to_6_years"
	ExperienceMoreThan6Year Experience = "more_than_6_years"
)

type Schedule string

const (
	ScheduleFullTime  Schedule = "full_time"
	SchedulePartTime  Schedule = "part_time"
	ScheduleProject   Schedule = "project"
	ScheduleFreelance Schedule = "freelance"
)

type WorkFormat string

const (
	WorkFormatOffice WorkFormat = "office"
	WorkFormatRemote WorkFormat = "remote"
	WorkFormatHybrid WorkFormat = "hybrid"
)

func (e Experience) Valid() bool {
	switch e {
	case "", ExperienceNone, ExperienceUpTo1Year, Experience1To3Years, Experience3To6Years, ExperienceMoreThan6Year:
		return true
	}
	return false
}

func (s Schedule) Valid() bool {
	switch s {
	case "", ScheduleFullTime, SchedulePartTime, ScheduleProject, ScheduleFreelance:
		return true
	}
	return false
}

func (f WorkFormat) Valid() bool {
	switch f {
	case "", WorkFormatOffice, WorkFormatRemote, WorkFormatHybrid:
		return true
	}
	return false
}

// Details carries the fields that only exist for one post type.
type Details interface {
	PostType() PostType
}

type JobDetails struct {
	Experience Experience
	Schedule   Schedule
	WorkFormat WorkFormat
}

func (JobDetails) PostType() PostType { return PostTypeJob }

type ServiceDetails struct{}

func (ServiceDetails) PostType() PostType { return PostTypeService }

// Draft is the listing being edited. The post type is fixed by Details.
type Draft struct {
	Title       string
	Description string
	Price       decimal.NullDecimal
	CurrencyID  string
	CityID      string
	Phone       string
	TierID      string
	Details     Details
}

func NewDraft(postType PostType) (Draft, error) {
	switch postType {
	case PostTypeJob:
		return Draft{Details: JobDetails{}}, nil
	case PostTypeService:
		return Draft{Details: ServiceDetails{}}, nil
	}
	return Draft{}, fmt.Errorf("%w: post type %q", ErrInvalidValue, postType)
}

func (d Draft) PostType() PostType {
	if d.Details == nil {
		return ""
	}
	return d.Details.PostType()
}

type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldPrice       Field = "price"
	FieldCurrency    Field = "currency_id"
	FieldCity        Field = "city_id"
	FieldPhone       Field = "phone"
	FieldTier        Field = "tier_id"
	FieldExperience  Field = "experience"
	FieldSchedule    Field = "schedule"
	FieldWorkFormat  Field = "work_format"
	FieldImage       Field = "image"
	FieldCategory    Field = "category"
)

func stringValue(field Field, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case Experience:
		return string(v), nil
	case Schedule:
		return string(v), nil
	case WorkFormat:
		return string(v), nil
	}
	return "", fmt.Errorf("%w: %s wants a string, got %T", ErrFieldType, field, value)
}

func priceValue(value any) (decimal.NullDecimal, error) {
	switch v := value.(type) {
	case nil:
		return decimal.NullDecimal{}, nil
	case decimal.Decimal:
		return decimal.NewNullDecimal(v), nil
	case decimal.NullDecimal:
		return v, nil
	case *decimal.Decimal:
		if v == nil {
			return decimal.NullDecimal{}, nil
		}
		return decimal.NewNullDecimal(*v), nil
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(v))), nil
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(v)), nil
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
		if s == "" {
			return decimal.NullDecimal{}, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.NullDecimal{}, fmt.Errorf("%w: price %q", ErrInvalidValue, v)
		}
		return decimal.NewNullDecimal(d), nil
	}
	return decimal.NullDecimal{}, fmt.Errorf("%w: price wants a decimal, got %T", ErrFieldType, value)
}

// set writes value into the field on a copy of d. d itself is never modified.
func (d Draft) set(field Field, value any) (Draft, error) {
	switch field {
	case FieldTitle, FieldDescription, FieldCurrency, FieldCity, FieldPhone, FieldTier:
		s, err := stringValue(field, value)
		if err != nil {
			return d, err
		}
		switch field {
		case FieldTitle:
			d.Title = s
		case FieldDescription:
			d.Description = s
		case FieldCurrency:
			d.CurrencyID = s
		case FieldCity:
			d.CityID = s
		case FieldPhone:
			d.Phone = s
		case FieldTier:
			d.TierID = s
		}
		return d, nil

	case FieldPrice:
		p, err := priceValue(value)
		if err != nil {
			return d, err
		}
		d.Price = p
		return d, nil

	case FieldExperience, FieldSchedule, FieldWorkFormat:
		job, ok := d.Details.(JobDetails)
		if !ok {
			return d, fmt.Errorf("%w: %s on %s listing", ErrFieldNotApplicable, field, d.PostType())
		}
		s, err := stringValue(field, value)
		if err != nil {
			return d, err
		}
		switch field {
		case FieldExperience:
			if !Experience(s).Valid() {
				return d, fmt.Errorf("%w: experience %q", ErrInvalidValue, s)
			}
			job.Experience = Experience(s)
		case FieldSchedule:
			if !Schedule(s).Valid() {
				return d, fmt.Errorf("%w: schedule %q", ErrInvalidValue, s)
			}
			job.Schedule = Schedule(s)
		case FieldWorkFormat:
			if !WorkFormat(s).Valid() {
				return d, fmt.Errorf("%w: work format %q", ErrInvalidValue, s)
			}
			job.WorkFormat = WorkFormat(s)
		}
		d.Details = job
		return d, nil
	}
	return d, fmt.Errorf("%w: %q", ErrUnknownField, field)
}
