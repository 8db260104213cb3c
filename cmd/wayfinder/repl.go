// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tomtom215/wayfinder/internal/assistant"
	"github.com/tomtom215/wayfinder/internal/logging"
	"github.com/tomtom215/wayfinder/internal/validation"
)

const (
	prompt   = "> "
	greeting = "Hi! Tell me what you're looking for and where, e.g. \"coffee with wifi in Philadelphia, PA\". Type /quit to leave."

	replyTryAgain = "Sorry, something went wrong on my side. Please try again."
)

// handler is the part of *assistant.Conversation the loop needs.
type handler interface {
	Handle(ctx context.Context, message string) (*assistant.Reply, error)
	Suggest(ctx context.Context) (*assistant.Reply, error)
}

// runREPL reads one message per line from in and writes replies to out
// until EOF, /quit, or ctx is canceled. A suggestion from the user's stored
// preferences is shown after the greeting when there is one.
func runREPL(ctx context.Context, conv handler, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
		close(lines)
	}()

	opening := greeting
	if s := suggestion(ctx, conv); s != "" {
		opening += "\n\n" + s
	}
	if _, err := fmt.Fprintf(out, "%s\n%s", opening, prompt); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}
			text := strings.TrimSpace(line)
			switch text {
			case "":
				if _, err := io.WriteString(out, prompt); err != nil {
					return err
				}
				continue
			case "/quit", "/exit":
				return nil
			}

			answer := respond(ctx, conv, text)
			if _, err := fmt.Fprintf(out, "%s\n%s", answer, prompt); err != nil {
				return err
			}
		}
	}
}

// respond turns a Handle result into the text shown to the user. Errors are
// logged; a reply that still carries text is shown as is.
func respond(ctx context.Context, conv handler, text string) string {
	reply, err := conv.Handle(ctx, text)
	if err != nil {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			return "Could you say that again in fewer words?"
		}
		logging.Warn().Err(err).Msg("Message handling failed")
		if reply != nil && reply.Text != "" {
			return reply.Text
		}
		return replyTryAgain
	}
	return reply.Text
}

// suggestion returns the text of a preference-based suggestion, or "" when
// there is none. Errors are logged and only a fallback text is kept.
func suggestion(ctx context.Context, conv handler) string {
	reply, err := conv.Suggest(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Preference suggestion failed")
	}
	if reply == nil {
		return ""
	}
	return reply.Text
}
