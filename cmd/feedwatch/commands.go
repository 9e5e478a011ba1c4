package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/amirrudd/flyerboard/internal/feedcache"
	"github.com/amirrudd/flyerboard/internal/listing/domain"
)

var errQuit = errors.New("quit")

// command is one parsed input line.
type command struct {
	name string
	arg  string
}

func parseCommand(line string) (command, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{}, false
	}
	name, arg, _ := strings.Cut(line, " ")
	return command{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}, true
}

// viewer increments view counters; the feed client implements it.
type viewer interface {
	IncrementViews(ctx context.Context, id string) error
}

type session struct {
	ctrl   *feedcache.Controller
	poller *feedcache.Poller
	views  viewer
	out    io.Writer
}

func (s *session) exec(ctx context.Context, cmd command) error {
	switch cmd.name {
	case "q", "quit", "exit":
		return errQuit
	case "help", "?":
		s.help()
	case "ls", "show":
		s.render()
	case "more":
		n, err := s.ctrl.LoadMore(ctx)
		if err != nil {
			return err
		}
		if n == 0 && s.ctrl.Done() {
			fmt.Fprintln(s.out, "end of feed")
		}
		s.render()
	case "refresh":
		n := s.ctrl.Refresh(ctx, true)
		fmt.Fprintf(s.out, "%d new\n", n)
		s.render()
	case "poke":
		s.poller.Nudge()
	case "clear":
		s.ctrl.ClearNewlyArrived()
		s.render()
	case "cat", "search", "loc":
		return s.changeFilter(ctx, cmd)
	case "view":
		if cmd.arg == "" {
			return fmt.Errorf("usage: view <listing id>")
		}
		if err := s.views.IncrementViews(ctx, cmd.arg); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "viewed %s\n", cmd.arg)
	default:
		return fmt.Errorf("unknown command %q, try help", cmd.name)
	}
	return nil
}

func (s *session) changeFilter(ctx context.Context, cmd command) error {
	t, _ := s.ctrl.Current()
	switch cmd.name {
	case "cat":
		t.CategoryID = cmd.arg
	case "search":
		t.SearchText = cmd.arg
	case "loc":
		t.Location = cmd.arg
	}
	hit, err := s.ctrl.OnFilterChange(ctx, t)
	if err != nil {
		return err
	}
	if hit {
		fmt.Fprintln(s.out, "(cached)")
	}
	s.render()
	return nil
}

func (s *session) render() {
	t, _ := s.ctrl.Current()
	fmt.Fprintf(s.out, "-- category=%q search=%q location=%q --\n", t.CategoryID, t.SearchText, t.Location)
	if s.ctrl.Loading() {
		fmt.Fprintln(s.out, "loading...")
		return
	}
	items := s.ctrl.Displayed()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "no listings")
		return
	}
	for _, l := range items {
		mark := " "
		if s.ctrl.IsNewlyArrived(l.ID) {
			mark = "*"
		}
		fmt.Fprintf(s.out, "%s %s  %-40s %10s  %s\n", mark, l.ID, l.Title, formatPrice(l), l.Location)
	}
}

func (s *session) help() {
	fmt.Fprintln(s.out, `commands:
  ls                 show the current feed
  more               load the next page
  refresh            check for new listings now
  poke               ask the poller to refresh (throttled)
  clear              drop the new-listing highlights
  cat <id>           filter by category (empty clears)
  search <text>      search listing titles
  loc <location>     filter by location
  view <id>          count a view
  q                  quit`)
}

func formatPrice(l *domain.Listing) string {
	if l.Price == nil {
		return string(l.Kind)
	}
	return "$" + strconv.FormatFloat(*l.Price, 'f', 2, 64)
}
