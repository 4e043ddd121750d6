package submission

import "strings"

// Validate checks a draft against the catalog without side effects.
// Every failure is reported; an empty result means the draft may be submitted.
func Validate(d Draft, catalog *Catalog) ValidationErrors {
	errs := ValidationErrors{}

	if strings.TrimSpace(d.Title) == "" {
		errs[FieldTitle] = "required"
	}

	if strings.TrimSpace(d.Description) == "" {
		errs[FieldDescription] = "required"
	}

	switch {
	case d.CityID == "":
		errs[FieldCity] = "required"
	case catalog != nil:
		if _, ok := catalog.City(d.CityID); !ok {
			errs[FieldCity] = "unknown city"
		}
	}

	switch {
	case d.CurrencyID == "":
		errs[FieldCurrency] = "required"
	case catalog != nil:
		if _, ok := catalog.Currency(d.CurrencyID); !ok {
			errs[FieldCurrency] = "unknown currency"
		}
	}

	switch {
	case d.TierID == "":
		errs[FieldTier] = "required"
	case catalog != nil:
		if _, ok := catalog.Tier(d.TierID); !ok {
			errs[FieldTier] = "unknown tier"
		}
	}

	if d.Price.Valid && d.Price.Decimal.IsNegative() {
		errs[FieldPrice] = "must not be negative"
	}

	return errs
}
