package cli

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
)

// runInteractive reads queries from in until EOF, exit, or a signal.
// Once the session context is canceled the loop ends immediately; a
// canceled context would fail every later query anyway.
func (a *app) runInteractive(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for {
		a.out.Print("search> ")
		if !scanner.Scan() {
			a.out.Newline()
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "exit", "quit":
			return nil
		case "help":
			a.printHelp()
			continue
		case "clear":
			a.out.Print("\033[2J\033[H")
			continue
		}

		if id, ok := parseIDCommand(line); ok {
			a.lookupByID(ctx, id)
			continue
		}

		a.runQuery(ctx, line)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (a *app) printHelp() {
	a.out.Newline()
	a.out.Bold("Commands")
	a.out.List([]string{
		"<question>   search the site and analyze the results",
		"id:<number>  show one post or page in full",
		"clear        clear the screen",
		"help         show this help",
		"exit, quit   leave wpsearch",
	})
	a.out.Newline()
}

// lookupByID fetches and renders a single record.
func (a *app) lookupByID(ctx context.Context, id int) {
	record, ok := a.content.FetchByID(ctx, id)
	if !ok {
		a.out.Error("no content with id %d", id)
		return
	}
	a.out.DisplayRecordDetail(*record)
}

// parseIDCommand recognizes "id:<number>" with optional whitespace.
func parseIDCommand(line string) (int, bool) {
	rest, ok := strings.CutPrefix(strings.ToLower(line), "id:")
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
