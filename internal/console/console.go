// Package console is the operator menu in front of the chain: add an event,
// view the chain, validate it, or simulate tampering.
package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/Whirlwind03/Blockchain-Dissertation-system/internal/blockchain"
	"github.com/Whirlwind03/Blockchain-Dissertation-system/pkg/types"
)

const (
	OptionAdd      = "Add a new block"
	OptionView     = "View the blockchain"
	OptionValidate = "Validate the chain"
	OptionTamper   = "Simulate tampering (invalidate the blockchain)"
	OptionExit     = "Exit"
)

var menu = []string{OptionAdd, OptionView, OptionValidate, OptionTamper, OptionExit}

// tamperPayload replaces block 1's record when tampering is simulated.
var tamperPayload = blockchain.Payload{"event": "Hacked Match", "info": "Tampered score"}

type Options struct {
	// MineTimeout bounds a single append; zero means no limit.
	MineTimeout time.Duration
}

type Console struct {
	chain       *blockchain.Chain
	ui          UI
	out         io.Writer
	log         *slog.Logger
	mineTimeout time.Duration
	session     string
}

func New(chain *blockchain.Chain, ui UI, out io.Writer, log *slog.Logger, opts Options) *Console {
	session := uuid.NewString()
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Console{
		chain:       chain,
		ui:          ui,
		out:         out,
		log:         log.With("session", session),
		mineTimeout: opts.MineTimeout,
		session:     session,
	}
}

func (c *Console) Session() string { return c.session }

// Banner prints the start-up title.
func (c *Console) Banner() {
	s, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Event", pterm.FgCyan.ToStyle()),
		putils.LettersFromStringWithStyle("Chain", pterm.FgDarkGray.ToStyle()),
	).Srender()
	if err != nil {
		return
	}
	fmt.Fprint(c.out, s)
	fmt.Fprint(c.out, pterm.Info.Sprintfln("difficulty %d, hash %s", c.chain.Difficulty(), c.chain.Algorithm()))
}

// Run loops over the menu until Exit is chosen, the UI fails, or ctx ends.
func (c *Console) Run(ctx context.Context) error {
	c.log.Info("console started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		choice, err := c.ui.Select("Choose an option", menu)
		if err != nil {
			return err
		}

		switch choice {
		case OptionAdd:
			if err := c.promptAdd(ctx); err != nil {
				return err
			}
		case OptionView:
			c.View()
		case OptionValidate:
			c.Validate()
		case OptionTamper:
			c.Tamper()
		case OptionExit:
			fmt.Fprint(c.out, pterm.Info.Sprintln("Exiting."))
			c.log.Info("console exited")
			return nil
		default:
			fmt.Fprint(c.out, pterm.Warning.Sprintln("Invalid choice. Please try again."))
		}
	}
}

func (c *Console) promptAdd(ctx context.Context) error {
	event, err := c.ui.Input("Enter event name")
	if err != nil {
		return err
	}
	info, err := c.ui.Input("Enter event details")
	if err != nil {
		return err
	}
	if err := c.AddEvent(ctx, event, info); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// AddEvent mines and appends {"event": event, "info": info}. Failures are
// reported on the console and returned.
func (c *Console) AddEvent(ctx context.Context, event, info string) error {
	event = strings.TrimSpace(event)
	if event == "" {
		fmt.Fprint(c.out, pterm.Warning.Sprintln("Event name must not be empty."))
		return errors.New("empty event name")
	}

	log := c.log.With("request_id", uuid.NewString())
	if c.mineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.mineTimeout)
		defer cancel()
	}

	log.Info("append requested", "event", event)
	p := c.ui.Progress(fmt.Sprintf("Mining block %d...", c.chain.Len()))
	b, err := c.chain.Append(ctx, blockchain.Payload{"event": event, "info": strings.TrimSpace(info)})
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			p.Fail("Mining timed out; the block was discarded.")
		case errors.Is(err, context.Canceled):
			p.Fail("Mining cancelled; the block was discarded.")
		default:
			p.Fail("Could not add block: " + err.Error())
		}
		log.Warn("append failed", "err", err)
		return err
	}
	p.Success(fmt.Sprintf("Block %d mined: %s", b.Index, b.Hash))
	log.Info("append complete", "index", b.Index, "hash", b.Hash)
	return nil
}

// View prints every block as indented JSON in chain order.
func (c *Console) View() {
	for _, v := range c.chain.Render() {
		fmt.Fprintln(c.out, pterm.DefaultBox.WithTitle(fmt.Sprintf("Block %d", v.Index)).WithTitleTopLeft().Sprint(FormatBlock(v)))
	}
}

// FormatBlock renders one block view as four-space indented JSON.
func FormatBlock(v types.BlockView) string {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}

func (c *Console) Validate() types.ValidationResult {
	res := c.chain.Validate()
	if res.Valid {
		fmt.Fprint(c.out, pterm.Success.Sprintln("The blockchain is valid."))
	} else {
		fmt.Fprint(c.out, pterm.Error.Sprintfln("The blockchain is invalid! %s at block %d", res.Kind, res.Index))
	}
	c.log.Info("chain validated", "valid", res.Valid, "index", res.Index, "kind", string(res.Kind))
	return res
}

// Tamper overwrites block 1's payload without re-hashing it.
func (c *Console) Tamper() bool {
	if c.chain.Len() <= 1 {
		fmt.Fprint(c.out, pterm.Warning.Sprintln("Not enough blocks to tamper."))
		return false
	}
	if err := c.chain.Corrupt(1, tamperPayload); err != nil {
		fmt.Fprint(c.out, pterm.Error.Sprintln("Tampering failed: "+err.Error()))
		return false
	}
	fmt.Fprint(c.out, pterm.Warning.Sprintln("Block 1 has been tampered with!"))
	return true
}
