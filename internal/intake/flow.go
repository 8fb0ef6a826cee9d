package intake

import (
	"rentdesk/server/internal/estimate"
)

// Step is the position of a calculator flow
type Step int

const (
	StepCollectingProperty Step = iota
	StepCollectingContact
	StepReadyToSubmit
)

// String returns the string representation of a Step
func (s Step) String() string {
	switch s {
	case StepCollectingProperty:
		return "collecting_property"
	case StepCollectingContact:
		return "collecting_contact"
	case StepReadyToSubmit:
		return "ready_to_submit"
	default:
		return "unknown"
	}
}

// PropertyDetails is the first calculator step
type PropertyDetails struct {
	Attributes    estimate.Attributes
	Address       string
	City          string
	PropertyType  string
	AvailableFrom string
	DesiredRent   string
}

// ContactDetails is the second calculator step
type ContactDetails struct {
	Name       string
	Email      string
	Phone      string
	Message    string
	SourcePage string
	Consent    bool
}

// CalculatorFlow walks a visitor from property details to contact details.
// Nothing is stored until the flow is submitted.
type CalculatorFlow struct {
	step     Step
	property PropertyDetails
	contact  ContactDetails
	estimate estimate.RentEstimate
}

func NewCalculatorFlow() *CalculatorFlow {
	return &CalculatorFlow{step: StepCollectingProperty}
}

func (f *CalculatorFlow) Step() Step {
	return f.step
}

// ProvideProperty records the property and returns its estimate right away
func (f *CalculatorFlow) ProvideProperty(details PropertyDetails) (estimate.RentEstimate, error) {
	if f.step != StepCollectingProperty {
		return estimate.RentEstimate{}, ErrWrongStep
	}
	f.property = details
	f.estimate = estimate.Calculate(details.Attributes)
	f.step = StepCollectingContact
	return f.estimate, nil
}

// ProvideContact records the contact details. Validation happens on submit.
func (f *CalculatorFlow) ProvideContact(details ContactDetails) error {
	if f.step != StepCollectingContact {
		return ErrWrongStep
	}
	f.contact = details
	f.step = StepReadyToSubmit
	return nil
}

// Back returns to the property step, keeping what was entered
func (f *CalculatorFlow) Back() {
	f.step = StepCollectingProperty
}

// Estimate returns the estimate computed for the current property details
func (f *CalculatorFlow) Estimate() estimate.RentEstimate {
	return f.estimate
}
