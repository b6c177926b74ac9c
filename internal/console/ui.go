package console

import (
	"github.com/pterm/pterm"
)

// UI is the interactive surface the console drives. The pterm implementation
// talks to a terminal; tests script it.
type UI interface {
	Select(label string, options []string) (string, error)
	Input(label string) (string, error)
	Progress(text string) Progress
}

// Progress is a running activity indicator, finished exactly once.
type Progress interface {
	Success(msg string)
	Fail(msg string)
}

type PtermUI struct{}

func (PtermUI) Select(label string, options []string) (string, error) {
	return pterm.DefaultInteractiveSelect.
		WithDefaultText(label).
		WithOptions(options).
		WithMaxHeight(len(options)).
		Show()
}

func (PtermUI) Input(label string) (string, error) {
	return pterm.DefaultInteractiveTextInput.WithDefaultText(label).Show()
}

func (PtermUI) Progress(text string) Progress {
	sp, err := pterm.DefaultSpinner.Start(text)
	if err != nil {
		return nopProgress{}
	}
	return spinner{sp}
}

type spinner struct{ sp *pterm.SpinnerPrinter }

func (s spinner) Success(msg string) { s.sp.Success(msg) }
func (s spinner) Fail(msg string)    { s.sp.Fail(msg) }

type nopProgress struct{}

func (nopProgress) Success(string) {}
func (nopProgress) Fail(string)    {}
