package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("prompt aborted")

// InputConfig configures a single-line prompt.
type InputConfig struct {
	Message   string
	Default   string
	Help      string
	Validator func(string) error
}

// PromptDriver asks the user for answers. The survey implementation talks
// to the terminal; tests substitute a scripted one.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Password(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, message string, def bool) (bool, error)
}

// SurveyDriver prompts on the controlling terminal.
type SurveyDriver struct{}

func askOpts(cfg InputConfig) []survey.AskOpt {
	if cfg.Validator == nil {
		return nil
	}
	return []survey.AskOpt{survey.WithValidator(func(ans interface{}) error {
		s, _ := ans.(string)
		return cfg.Validator(s)
	})}
}

func (SurveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}
	if err := survey.AskOne(prompt, &out, askOpts(cfg)...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (SurveyDriver) Password(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Password{Message: cfg.Message, Help: cfg.Help}
	if err := survey.AskOne(prompt, &out, askOpts(cfg)...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (SurveyDriver) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func requiredValidator(required bool, next func(string) error) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			if required {
				return errors.New("a value is required")
			}
			return nil
		}
		if next != nil {
			return next(s)
		}
		return nil
	}
}

func validNumber(s string) error {
	if !numericRE.MatchString(s) {
		return fmt.Errorf("%q is not a number", s)
	}
	return nil
}

func validDate(s string) error {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("%q is not a date (YYYY-MM-DD)", s)
	}
	return nil
}

func validClock(s string) error {
	if _, err := time.Parse("15:04", s); err != nil {
		return fmt.Errorf("%q is not a time (HH:MM)", s)
	}
	return nil
}

// Fill prompts for every field of c in render order and records the
// answers. Previously captured answers are offered as defaults, except for
// masked fields.
func Fill(ctx context.Context, c *Capture, d PromptDriver) error {
	for _, f := range c.fields {
		traits := f.Kind.Traits()
		message := f.Label
		if f.Required {
			message += " *"
		}
		current := c.Value(f.ID)

		var err error
		switch {
		case traits.Composite:
			err = fillDateTime(ctx, c, d, f.ID, message, f.Required, current)
		case traits.Masked:
			var ans string
			ans, err = d.Password(ctx, InputConfig{
				Message:   message,
				Help:      traits.Placeholder,
				Validator: requiredValidator(f.Required, nil),
			})
			if err == nil {
				err = c.Set(f.ID, ans)
			}
		default:
			var next func(string) error
			if traits.NumericOnly {
				next = validNumber
			}
			var ans string
			ans, err = d.Input(ctx, InputConfig{
				Message:   message,
				Default:   current,
				Help:      traits.Placeholder,
				Validator: requiredValidator(f.Required, next),
			})
			if err == nil {
				err = c.Set(f.ID, strings.TrimSpace(ans))
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func fillDateTime(ctx context.Context, c *Capture, d PromptDriver, id, message string, required bool, current string) error {
	var defDate, defClock string
	if t, err := time.Parse(DateTimeLayout, current); err == nil {
		defDate, defClock = t.Format("2006-01-02"), t.Format("15:04")
	}
	date, err := d.Input(ctx, InputConfig{
		Message:   message + " (date)",
		Default:   defDate,
		Help:      "YYYY-MM-DD",
		Validator: requiredValidator(required, validDate),
	})
	if err != nil {
		return err
	}
	if strings.TrimSpace(date) == "" {
		return c.Set(id, "")
	}
	if defClock == "" {
		defClock = "00:00"
	}
	clock, err := d.Input(ctx, InputConfig{
		Message:   message + " (time)",
		Default:   defClock,
		Help:      "HH:MM, UTC",
		Validator: requiredValidator(false, validClock),
	})
	if err != nil {
		return err
	}
	return c.SetDateTime(id, date, clock)
}
