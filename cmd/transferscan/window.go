package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goodnatureofminers/transferscan/internal/evm/model"
	"github.com/manifoldco/promptui"
)

// inputTimeLayout is accepted by --start/--end and read as UTC.
const inputTimeLayout = "2006-01-02 15:04:05"

var errUserCanceled = errors.New("canceled by user")

// prompter asks the operator for a single value.
type prompter interface {
	Ask(label, def string, validate func(string) error) (string, error)
	Choose(label string, items []string) (int, error)
}

type terminalPrompter struct{}

func (terminalPrompter) Ask(label, def string, validate func(string) error) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Default:  def,
		Validate: validate,
	}
	v, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return "", errUserCanceled
		}
		return "", fmt.Errorf("%s prompt failed: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(v), nil
}

func (terminalPrompter) Choose(label string, items []string) (int, error) {
	s := promptui.Select{
		Label: label,
		Items: items,
	}
	idx, _, err := s.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return 0, errUserCanceled
		}
		return 0, fmt.Errorf("window kind prompt failed: %w", err)
	}
	return idx, nil
}

// windowFromConfig builds the scan window from flags. When no window flag is
// set the operator is asked through p.
func windowFromConfig(cfg config, p prompter) (model.TimeWindow, error) {
	absolute := cfg.Start != "" || cfg.End != ""
	relative := cfg.HoursAgoStart != 0 || cfg.HoursAgoEnd != 0

	switch {
	case absolute && relative:
		return model.TimeWindow{}, fmt.Errorf("%w: use either --start/--end or --hours-ago-start/--hours-ago-end", model.ErrInvalidWindow)
	case absolute:
		return absoluteWindow(cfg.Start, cfg.End)
	case relative:
		return model.RelativeWindow(cfg.HoursAgoStart, cfg.HoursAgoEnd)
	case p == nil:
		return model.TimeWindow{}, fmt.Errorf("%w: no window given", model.ErrInvalidWindow)
	default:
		return promptWindow(p)
	}
}

func promptWindow(p prompter) (model.TimeWindow, error) {
	kind, err := p.Choose("Scan window", []string{"Hours ago", "Absolute UTC times"})
	if err != nil {
		return model.TimeWindow{}, err
	}

	if kind == 0 {
		start, err := p.Ask("Start (hours ago)", "24", validateHours)
		if err != nil {
			return model.TimeWindow{}, err
		}
		end, err := p.Ask("End (hours ago)", "0", validateHours)
		if err != nil {
			return model.TimeWindow{}, err
		}
		startHours, _ := strconv.Atoi(start)
		endHours, _ := strconv.Atoi(end)
		return model.RelativeWindow(startHours, endHours)
	}

	start, err := p.Ask("Start ("+inputTimeLayout+" UTC)", "", validateTime)
	if err != nil {
		return model.TimeWindow{}, err
	}
	end, err := p.Ask("End ("+inputTimeLayout+" UTC)", "", validateTime)
	if err != nil {
		return model.TimeWindow{}, err
	}
	return absoluteWindow(start, end)
}

func absoluteWindow(start, end string) (model.TimeWindow, error) {
	if start == "" || end == "" {
		return model.TimeWindow{}, fmt.Errorf("%w: both --start and --end are required", model.ErrInvalidWindow)
	}
	from, err := parseTime(start)
	if err != nil {
		return model.TimeWindow{}, err
	}
	to, err := parseTime(end)
	if err != nil {
		return model.TimeWindow{}, err
	}
	return model.AbsoluteWindow(from, to)
}

// parseTime reads "2006-01-02 15:04:05" as UTC, or RFC3339 with any offset.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(inputTimeLayout, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cannot parse time %q, use %q or RFC3339", model.ErrInvalidWindow, s, inputTimeLayout)
	}
	return t.UTC(), nil
}

func validateHours(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("enter a whole number of hours")
	}
	if n < 0 {
		return errors.New("hours must not be negative")
	}
	return nil
}

func validateTime(s string) error {
	_, err := parseTime(s)
	return err
}
