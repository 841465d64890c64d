package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/tasklist/internal/app"
	"github.com/dori/tasklist/internal/client"
	"github.com/dori/tasklist/internal/config"
	"github.com/dori/tasklist/internal/model"
	"github.com/dori/tasklist/internal/ui"
	"github.com/dori/tasklist/internal/ui/views"
)

var (
	version = "0.1.0"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("todolist v%s\n", version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	fs := flag.NewFlagSet("todolist", flag.ContinueOnError)
	fs.Usage = printHelp
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		c := client.New(cfg.BaseURL, client.WithTimeout(cfg.Timeout))
		if err := runCommand(ctx, os.Stdout, c, fs.Arg(0), fs.Args()[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	help := `todolist - a terminal to-do list backed by a REST task service

Usage:
  todolist [options]            Start the TUI
  todolist [options] list       Print all tasks
  todolist [options] add <task> Add a task
  todolist [options] done <id>  Mark a task completed
  todolist [options] undone <id> Mark a task not completed
  todolist [options] rm <id>    Delete a task
  todolist version              Show version
  todolist help                 Show this help

Ids may be shortened to any unique prefix.

Options:
  --base-url <url>    Task service (default http://localhost:5000)
  --timeout <dur>     Per-request timeout, 0 disables (e.g. 5s)
  --theme <name>      Theme (nord, dracula, gruvbox, catppuccin)
  --config <file>     Config file (default ~/.config/todolist/config.toml)
  --log-level <lvl>   debug, info, warn, error
  --log-format <fmt>  text, json, logfmt
  --log-file <file>   Log file (default ~/.local/state/todolist/todolist.log)
  --notify            Desktop notification when a request fails

Every option can also be set as TODOLIST_<NAME> in the environment or a
.env file in the working directory.

Keybindings:
  Navigation:   ↑/↓ or j/k    Move cursor
                g/G           Go to top/bottom

  Actions:      a             Add new task
                enter         Edit task
                space         Toggle done
                d             Delete
                r             Reload

  General:      ctrl+t        Cycle theme
                ?             Help
                q             Quit`

	fmt.Println(help)
}

func runCommand(ctx context.Context, out io.Writer, svc views.TaskService, name string, args []string) error {
	switch name {
	case "list", "ls":
		tasks, err := svc.List(ctx)
		if err != nil {
			return err
		}
		printTasks(out, tasks)
		return nil

	case "add":
		title := strings.TrimSpace(strings.Join(args, " "))
		if title == "" {
			return errors.New("usage: todolist add <task>")
		}
		task, err := svc.Create(ctx, title)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Created: %s (%s)\n", task.Title, task.ID)
		return nil

	case "done", "undone":
		if len(args) != 1 {
			return fmt.Errorf("usage: todolist %s <id>", name)
		}
		id, err := resolveID(ctx, svc, args[0])
		if err != nil {
			return err
		}
		task, err := svc.Update(ctx, id, model.CompletedPatch(name == "done"))
		if err != nil {
			return err
		}
		printTasks(out, []model.Task{task})
		return nil

	case "rm", "delete":
		if len(args) != 1 {
			return errors.New("usage: todolist rm <id>")
		}
		id, err := resolveID(ctx, svc, args[0])
		if err != nil {
			return err
		}
		if err := svc.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted: %s\n", id)
		return nil
	}

	return fmt.Errorf("unknown command %q (see todolist help)", name)
}

// resolveID expands a unique id prefix to the full id
func resolveID(ctx context.Context, svc views.TaskService, prefix string) (string, error) {
	tasks, err := svc.List(ctx)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, t := range tasks {
		if t.ID == prefix {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			matches = append(matches, t.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no task with id %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id %q is ambiguous (%d tasks)", prefix, len(matches))
	}
}

func printTasks(out io.Writer, tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, t := range tasks {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", check, shortID(t.ID), t.Title)
	}
	w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runTUI(cfg *config.Config) error {
	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	root := ui.NewRootModel(application)

	p := tea.NewProgram(
		root,
		tea.WithAltScreen(),
	)

	_, err = p.Run()
	return err
}
