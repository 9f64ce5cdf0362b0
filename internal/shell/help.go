package shell

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

const helpText = "# chimectl commands\n\n" +
	"## Scheduling\n\n" +
	"- `alarm <when> [options]` — set an alarm, e.g. `alarm 7:30am repeat=weekdays`\n" +
	"- `remind name=<name> <when> [options]` — set a reminder, e.g. `remind name=take_meds in 20 minutes`\n\n" +
	"Time expressions: `7:30am`, `15:04`, `in 20 minutes`, `tomorrow at 7`, `monday at 8am`, `next friday 18:00`.\n\n" +
	"Options (use `_` for spaces in values):\n\n" +
	"- `repeat=` once, daily, weekdays, weekends, weekly\n" +
	"- `days=` comma-separated days for weekly, e.g. `days=mon,fri`\n" +
	"- `message=` extra text spoken when it fires\n" +
	"- `sound=` sound name or file\n" +
	"- `target=` satellite playback target\n\n" +
	"## Managing\n\n" +
	"- `list [alarm|reminder]` — show the schedule\n" +
	"- `get <id>` — show one item\n" +
	"- `stop <id>` / `stop-all` — silence rings\n" +
	"- `snooze <id> [minutes]` — re-arm a few minutes out (default 9)\n" +
	"- `enable <id>` / `disable <id>`\n" +
	"- `delete <id>` / `delete-all [alarm|reminder]`\n" +
	"- `quit` — leave\n"

func (s *Shell) displayHelp() error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Print(helpText)
		return nil
	}

	out, err := renderer.Render(helpText)
	if err != nil {
		fmt.Print(helpText)
		return nil
	}
	fmt.Print(out)
	return nil
}
