package account

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hydratemate/internal/auth"
	"github.com/julianstephens/hydratemate/internal/cli"
	"github.com/julianstephens/hydratemate/internal/constants"
	"github.com/julianstephens/hydratemate/internal/models"
)

// Prompts are package variables so tests can answer them
var (
	promptSignUp = runSignUpForm
	promptSignIn = runSignInForm
	promptSetup  = runSetupForm
)

func runSignUpForm(d *auth.SignUpData) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Full name").
				Value(&d.FullName).
				Validate(auth.ValidateName),
			huh.NewInput().
				Title("Email").
				Value(&d.Email).
				Validate(auth.ValidateEmail),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				DescriptionFunc(func() string {
					if s := auth.PasswordStrength(d.Password); s != "" {
						return "Strength: " + s
					}
					return fmt.Sprintf("At least %d characters with upper and lower case letters and a number", auth.MinPasswordLength)
				}, &d.Password).
				Value(&d.Password).
				Validate(auth.ValidatePassword),
		),
	).WithTheme(huh.ThemeDracula()).Run()
}

func runSignInForm(d *auth.SignInData) error {
	fields := []huh.Field{}
	if d.Email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Value(&d.Email).
			Validate(auth.ValidateEmail))
	}
	fields = append(fields, huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&d.Password))
	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeDracula()).Run()
}

// setupAnswers holds the onboarding form values as typed
type setupAnswers struct {
	Units     constants.Units
	Goal      string
	Reminders bool
	Interval  string
}

func runSetupForm(a *setupAnswers) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[constants.Units]().
				Title("Units").
				Options(
					huh.NewOption("Millilitres (ml)", constants.UnitsMl),
					huh.NewOption("Fluid ounces (oz)", constants.UnitsOz),
				).
				Value(&a.Units),
			huh.NewInput().
				Title("Daily goal").
				DescriptionFunc(func() string {
					return fmt.Sprintf("In %s, or add ml/oz to the number", a.Units)
				}, &a.Units).
				Value(&a.Goal).
				Validate(func(s string) error {
					ml, err := cli.ParseAmount(s, a.Units)
					if err != nil {
						return err
					}
					return models.ValidateGoal(ml)
				}),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Remind me to drink water?").
				Value(&a.Reminders),
			huh.NewInput().
				Title("Minutes between reminders").
				Value(&a.Interval).
				Validate(func(s string) error {
					if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
						return fmt.Errorf("enter a number of minutes")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula()).Run()
}
