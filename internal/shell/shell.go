// Package shell is chimectl's interactive mode: a small readline loop over
// the daemon API.
package shell

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ringdown/chimed/internal/apiclient"
	"github.com/ringdown/chimed/internal/httpapi"
	"github.com/ringdown/chimed/internal/item"
	"github.com/ringdown/chimed/internal/ui"
)

// Shell drives the interactive session.
type Shell struct {
	api       *apiclient.Client
	rl        *readline.Instance
	formatter *ui.Formatter
}

// New creates a shell talking to the given daemon client.
func New(api *apiclient.Client, colored bool) (*Shell, error) {
	rl, err := setupReadline()
	if err != nil {
		return nil, fmt.Errorf("failed to setup readline: %w", err)
	}

	return &Shell{
		api:       api,
		rl:        rl,
		formatter: ui.NewFormatter(colored),
	}, nil
}

// Start runs the loop until quit or EOF.
func (s *Shell) Start(ctx context.Context) error {
	defer s.rl.Close()

	fmt.Println("chimectl interactive mode. Type 'help' for commands.")

	for {
		line, err := s.rl.Readline()
		if err != nil {
			if isEOF(err) {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		fields := strings.Fields(input)
		command := strings.ToLower(fields[0])
		args := fields[1:]

		if command == "quit" || command == "exit" || command == "q" {
			fmt.Println("Goodbye!")
			return nil
		}

		if err := s.handleCommand(ctx, command, args); err != nil {
			fmt.Println(s.formatter.FormatError(err))
		}
	}
}

func (s *Shell) handleCommand(ctx context.Context, command string, args []string) error {
	switch command {
	case "help", "h":
		return s.displayHelp()

	case "list", "ls":
		kind := item.Kind("")
		if len(args) > 0 {
			kind = parseKind(args[0])
		}
		items, err := s.api.List(ctx, kind)
		if err != nil {
			return err
		}
		fmt.Print(s.formatter.FormatItems(items))
		return nil

	case "get", "show":
		if len(args) < 1 {
			return fmt.Errorf("usage: get <id>")
		}
		it, err := s.api.Get(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Print(s.formatter.FormatItem(it))
		return nil

	case "alarm":
		return s.create(ctx, item.KindAlarm, args)

	case "remind", "reminder":
		return s.create(ctx, item.KindReminder, args)

	case "stop":
		if len(args) < 1 {
			return fmt.Errorf("usage: stop <id>")
		}
		it, err := s.api.Stop(ctx, args[0], "")
		if err != nil {
			return err
		}
		if it.ID == "" {
			fmt.Println(s.formatter.FormatSuccess("Nothing to stop."))
			return nil
		}
		fmt.Println(s.formatter.FormatSuccess(fmt.Sprintf("%s stopped.", it.DisplayName)))
		return nil

	case "snooze":
		if len(args) < 1 {
			return fmt.Errorf("usage: snooze <id> [minutes]")
		}
		minutes := 9
		if len(args) > 1 {
			m, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("minutes must be a number: %q", args[1])
			}
			minutes = m
		}
		it, err := s.api.Snooze(ctx, args[0], minutes, "")
		if err != nil {
			return err
		}
		fmt.Println(s.formatter.FormatSuccess(
			fmt.Sprintf("%s snoozed until %s.", it.DisplayName, it.ScheduledTime.Format("15:04"))))
		return nil

	case "delete", "del", "rm":
		if len(args) < 1 {
			return fmt.Errorf("usage: delete <id>")
		}
		if err := s.api.Delete(ctx, args[0], ""); err != nil {
			return err
		}
		fmt.Println(s.formatter.FormatSuccess(args[0] + " deleted."))
		return nil

	case "stop-all":
		n, err := s.api.StopAll(ctx)
		if err != nil {
			return err
		}
		fmt.Println(s.formatter.FormatSuccess(fmt.Sprintf("Stopped %d item(s).", n)))
		return nil

	case "delete-all":
		kind := item.Kind("")
		if len(args) > 0 {
			kind = parseKind(args[0])
		}
		n, err := s.api.DeleteAll(ctx, kind)
		if err != nil {
			return err
		}
		fmt.Println(s.formatter.FormatSuccess(fmt.Sprintf("Deleted %d item(s).", n)))
		return nil

	case "enable", "disable":
		if len(args) < 1 {
			return fmt.Errorf("usage: %s <id>", command)
		}
		enabled := command == "enable"
		it, err := s.api.Edit(ctx, args[0], httpapi.EditRequest{Enabled: &enabled})
		if err != nil {
			return err
		}
		fmt.Println(s.formatter.FormatSuccess(fmt.Sprintf("%s %sd.", it.DisplayName, command)))
		return nil

	default:
		return fmt.Errorf("unknown command: %s (type help for available commands)", command)
	}
}

// create handles "alarm <when...> [key=value...]" and
// "remind name=<name> <when...> [key=value...]".
func (s *Shell) create(ctx context.Context, kind item.Kind, args []string) error {
	req, err := parseCreateArgs(args)
	if err != nil {
		return err
	}
	if req.When == "" {
		return fmt.Errorf("a time is required (e.g. \"alarm 7:30am\" or \"remind name=meds in 20 minutes\")")
	}

	var it item.Item
	if kind == item.KindAlarm {
		it, err = s.api.CreateAlarm(ctx, req)
	} else {
		it, err = s.api.CreateReminder(ctx, req)
	}
	if err != nil {
		return err
	}

	fmt.Println(s.formatter.FormatSuccess(
		fmt.Sprintf("%s set for %s.", it.DisplayName, it.ScheduledTime.Format("Mon Jan 2 15:04"))))
	return nil
}

// parseCreateArgs splits key=value options out of the argument list; what
// remains, joined, is the time expression. Underscores in values read as
// spaces so multi-word names survive field splitting.
func parseCreateArgs(args []string) (httpapi.CreateRequest, error) {
	var req httpapi.CreateRequest
	var when []string

	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			when = append(when, arg)
			continue
		}
		value = strings.ReplaceAll(value, "_", " ")
		switch key {
		case "name":
			req.Name = value
		case "repeat":
			req.Repeat = value
		case "days":
			req.Days = strings.Split(strings.ReplaceAll(value, " ", ""), ",")
		case "message", "msg":
			req.Message = value
		case "sound":
			req.Sound = strings.ReplaceAll(value, " ", "_")
		case "target":
			req.Target = value
		default:
			return req, fmt.Errorf("unknown option %q", key)
		}
	}

	req.When = strings.Join(when, " ")
	return req, nil
}

func parseKind(s string) item.Kind {
	switch strings.ToLower(strings.TrimSuffix(s, "s")) {
	case "alarm":
		return item.KindAlarm
	case "reminder":
		return item.KindReminder
	}
	return ""
}

func setupReadline() (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "chimectl> ",
		HistoryFile:       "",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})

	return rl, err
}

func isEOF(err error) bool {
	return err == io.EOF || err == readline.ErrInterrupt
}
