package booking

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"ayat-booking/internal/models"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Input is what the visitor types into the booking form.
type Input struct {
	Name             string                `json:"name" validate:"required"`
	Phone            string                `json:"phone" validate:"required,phone10"`
	Email            string                `json:"email" validate:"required,email"`
	Tickets          int                   `json:"tickets"`
	FoodPreference   models.FoodPreference `json:"foodPreference" validate:"required,oneof=vegetarian non-vegetarian vegan none"`
	UPITransactionID string                `json:"upiTransactionId" validate:"required"`
	SpecialRequests  string                `json:"specialRequests"`
}

func (in Input) trimmed() Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.FoodPreference = models.FoodPreference(strings.TrimSpace(string(in.FoodPreference)))
	in.UPITransactionID = strings.TrimSpace(in.UPITransactionID)
	in.SpecialRequests = strings.TrimSpace(in.SpecialRequests)
	return in
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "phone10", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// mustRegister panics if tag cannot be registered.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

var fieldLabels = map[string]string{
	"name":             "Name",
	"phone":            "Phone",
	"email":            "Email",
	"foodPreference":   "Food preference",
	"upiTransactionId": "UPI transaction ID",
}

// validateInput checks in against the field rules and the ticket range
// [1, maxTickets]. remaining is set when seats are counted.
func (c *Controller) validateInput(in Input, maxTickets int, remaining *int) *ValidationError {
	fields := make(map[string]string)

	if err := c.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			fields["form"] = err.Error()
		}
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}

	if msg := ticketMessage(in.Tickets, maxTickets, remaining); msg != "" {
		fields["tickets"] = msg
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "phone10":
		return "Phone must be a 10-digit number"
	case "email":
		return "Enter a valid email address"
	case "oneof":
		return "Choose vegetarian, non-vegetarian, vegan or none"
	}
	return label + " is invalid"
}

func ticketMessage(tickets, maxTickets int, remaining *int) string {
	if tickets >= 1 && tickets <= maxTickets {
		return ""
	}
	if remaining != nil && tickets > *remaining {
		return fmt.Sprintf("Sorry, only %d seats are available.", *remaining)
	}
	if maxTickets < 1 {
		return "No seats are available"
	}
	return fmt.Sprintf("Tickets must be between 1 and %d", maxTickets)
}
