package entry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted is returned when the operator interrupts a prompt with Ctrl+C.
var ErrAborted = errors.New("entry: aborted")

// InputConfig describes a free-text field prompt, such as the garment name or
// a typed barcode.
type InputConfig struct {
	Message   string
	Default   string
	Help      string
	Validator func(string) error
}

// ConfirmConfig describes a yes/no question.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// SelectConfig describes a menu, or a dropdown when used with MultiSelect.
type SelectConfig struct {
	Message      string
	Options      []string
	DefaultIndex int
	// Defaults preselects dropdown entries by index.
	Defaults []int
	Help     string
	PageSize int
}

// PromptDriver is the terminal seen by the entry screen. Tests replace it with
// a scripted driver.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error)
	Info(ctx context.Context, msg string) error
}

type terminalDriver struct {
	out io.Writer
}

// NewSurveyDriver prompts on the process terminal and prints notices to out
// (stdout when nil).
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &terminalDriver{out: out}
}

// ask runs one survey prompt unless the screen is already shutting down.
func ask(ctx context.Context, prompt survey.Prompt, answer any, opts ...survey.AskOpt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := survey.AskOne(prompt, answer, opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func (d *terminalDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	var opts []survey.AskOpt
	if validate := cfg.Validator; validate != nil {
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			text, _ := ans.(string)
			return validate(text)
		}))
	}
	var value string
	err := ask(ctx, &survey.Input{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}, &value, opts...)
	return value, err
}

func (d *terminalDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	var yes bool
	err := ask(ctx, &survey.Confirm{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}, &yes)
	return yes, err
}

// Select writes the chosen position straight into an int; survey resolves
// option answers to their index.
func (d *terminalDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	menu := &survey.Select{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help}
	if cfg.PageSize > 0 {
		menu.PageSize = cfg.PageSize
	}
	if cfg.DefaultIndex > 0 && cfg.DefaultIndex < len(cfg.Options) {
		menu.Default = cfg.DefaultIndex
	}
	choice := -1
	if err := ask(ctx, menu, &choice); err != nil {
		return -1, err
	}
	return choice, nil
}

func (d *terminalDriver) MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error) {
	dropdown := &survey.MultiSelect{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help}
	if cfg.PageSize > 0 {
		dropdown.PageSize = cfg.PageSize
	}
	if preselected := inRange(cfg.Defaults, len(cfg.Options)); len(preselected) > 0 {
		dropdown.Default = preselected
	}
	var picked []int
	if err := ask(ctx, dropdown, &picked); err != nil {
		return nil, err
	}
	return picked, nil
}

func (d *terminalDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

func inRange(indices []int, n int) []int {
	var out []int
	for _, i := range indices {
		if i >= 0 && i < n {
			out = append(out, i)
		}
	}
	return out
}
