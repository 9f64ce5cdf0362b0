// Command chimectl is the terminal client for the chimed daemon. With no
// arguments it drops into an interactive shell; with arguments it runs a
// single command and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ringdown/chimed/internal/apiclient"
	"github.com/ringdown/chimed/internal/item"
	"github.com/ringdown/chimed/internal/shell"
	"github.com/ringdown/chimed/internal/ui"
)

func main() {
	apiURL := flag.String("api", os.Getenv("CHIMED_API_URL"), "Base URL of the chimed daemon")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	flag.Parse()

	api := apiclient.New(*apiURL)
	formatter := ui.NewFormatter(!*noColor)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	args := flag.Args()
	if len(args) == 0 {
		sh, err := shell.New(api, !*noColor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error starting shell: %v\n", err)
			os.Exit(1)
		}
		if err := sh.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runOnce(ctx, api, formatter, args); err != nil {
		fmt.Fprintln(os.Stderr, formatter.FormatError(err))
		os.Exit(1)
	}
}

// runOnce executes a single non-interactive command, mirroring the shell's
// command set.
func runOnce(ctx context.Context, api *apiclient.Client, formatter *ui.Formatter, args []string) error {
	switch args[0] {
	case "list", "ls":
		kind := item.Kind("")
		if len(args) > 1 {
			kind = item.Kind(args[1])
		}
		items, err := api.List(ctx, kind)
		if err != nil {
			return err
		}
		fmt.Print(formatter.FormatItems(items))
		return nil

	case "get":
		if len(args) < 2 {
			return fmt.Errorf("usage: chimectl get <id>")
		}
		it, err := api.Get(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Print(formatter.FormatItem(it))
		return nil

	case "stop":
		if len(args) < 2 {
			return fmt.Errorf("usage: chimectl stop <id>")
		}
		it, err := api.Stop(ctx, args[1], "")
		if err != nil {
			return err
		}
		if it.ID == "" {
			fmt.Println("Nothing to stop.")
			return nil
		}
		fmt.Println(formatter.FormatSuccess(it.DisplayName + " stopped."))
		return nil

	case "stop-all":
		n, err := api.StopAll(ctx)
		if err != nil {
			return err
		}
		fmt.Println(formatter.FormatSuccess(fmt.Sprintf("Stopped %d item(s).", n)))
		return nil

	case "health":
		if err := api.Health(ctx); err != nil {
			return err
		}
		fmt.Println(formatter.FormatSuccess("Daemon is up."))
		return nil

	default:
		return fmt.Errorf("unknown command %q (run chimectl with no arguments for the interactive shell)", args[0])
	}
}
