package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"parley/internal/domain"
)

const helpText = `Available actions:
  exit           Exit the program
  help           Display this help message
  id             Display your uuid
  list           List available peers
  open [peer]    Open a connection to a peer (index or uuid)
  accept [n]     View or accept pending connection requests
  reject <n>     Reject a pending connection request
  send <message> Send a message to the current channel`

// RunPrompt drives the interactive session: it prints queued events between
// commands and dispatches each input line until exit, EOF or a dead
// connection. Input is read on its own goroutine so a lost relay or a
// cancelled context interrupts the prompt without waiting for Enter.
func (c *Client) RunPrompt(ctx context.Context, in io.Reader, out io.Writer) error {
	go func() {
		for line := range c.Events() {
			fmt.Fprintf(out, "\n %s\n> ", line)
		}
	}()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			case <-c.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		fmt.Fprint(out, "> ")

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.Done():
			return fmt.Errorf("lost connection to relay: %w", c.Err())
		case err := <-scanErr:
			return err
		case line = <-lines:
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		verb, rest, _ := strings.Cut(line, " ")
		switch verb {
		case "exit":
			return nil
		case "help":
			fmt.Fprintln(out, helpText)
		case "id":
			fmt.Fprintf(out, "Your uuid is: %s\n", c.ID())
		case "list":
			c.printRoster(out)
		case "open":
			c.cmdOpen(out, strings.TrimSpace(rest))
		case "accept":
			c.cmdAccept(out, strings.TrimSpace(rest))
		case "reject":
			c.cmdReject(out, strings.TrimSpace(rest))
		case "send":
			if err := c.Say(rest); err != nil {
				fmt.Fprintln(out, err)
			}
		default:
			fmt.Fprintf(out, "Unknown action: %s\n", verb)
		}
	}
}

func (c *Client) printRoster(out io.Writer) {
	peers := c.Peers()
	if len(peers) == 0 {
		fmt.Fprintln(out, "No peers available.")
		return
	}
	fmt.Fprintln(out, "Available peers:")
	for i, p := range peers {
		mark := ""
		if c.Connected(p.ID) {
			mark = " (connected)"
		}
		fmt.Fprintf(out, "  %d. %s%s\n", i+1, p.Label(), mark)
	}
}

// cmdOpen resolves the argument (roster index or uuid) and opens or switches
// to the channel.
func (c *Client) cmdOpen(out io.Writer, arg string) {
	if arg == "" {
		c.printRoster(out)
		fmt.Fprintln(out, "Usage: open <index|uuid>")
		return
	}
	target, ok := c.resolvePeer(arg, c.Peers())
	if !ok {
		fmt.Fprintf(out, "No such peer: %s\n", arg)
		return
	}
	switched, err := c.Open(target)
	switch {
	case err != nil:
		fmt.Fprintln(out, err)
	case switched:
		if p, ok := c.Current(); ok {
			fmt.Fprintf(out, "You are now talking to %s.\n", p.Label())
		}
	default:
		fmt.Fprintln(out, "Connection request sent.")
	}
}

func (c *Client) cmdAccept(out io.Writer, arg string) {
	reqs := c.Requests()
	if len(reqs) == 0 {
		fmt.Fprintln(out, "No pending requests.")
		return
	}
	if arg == "" {
		fmt.Fprintln(out, "Pending requests:")
		for i, p := range reqs {
			fmt.Fprintf(out, "  %d. %s\n", i+1, p.Label())
		}
		fmt.Fprintln(out, "Usage: accept <n>")
		return
	}
	target, ok := c.resolvePeer(arg, reqs)
	if !ok {
		fmt.Fprintf(out, "No such request: %s\n", arg)
		return
	}
	if err := c.Accept(target); err != nil {
		fmt.Fprintln(out, err)
		return
	}
	fmt.Fprintln(out, "Connection accepted.")
}

func (c *Client) cmdReject(out io.Writer, arg string) {
	target, ok := c.resolvePeer(arg, c.Requests())
	if !ok {
		fmt.Fprintf(out, "No such request: %s\n", arg)
		return
	}
	if err := c.Reject(target); err != nil {
		fmt.Fprintln(out, err)
		return
	}
	fmt.Fprintln(out, "Connection rejected.")
}

// resolvePeer interprets arg as a 1-based index into peers, or as a uuid.
func (c *Client) resolvePeer(arg string, peers []domain.Peer) (uuid.UUID, bool) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(peers) {
			return uuid.Nil, false
		}
		return peers[n-1].ID, true
	}
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
