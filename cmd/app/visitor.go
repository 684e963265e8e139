// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"codeberg.org/oliverandrich/portfolio-gate/internal/client"
	"codeberg.org/oliverandrich/portfolio-gate/internal/config"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/notify"
	"codeberg.org/oliverandrich/portfolio-gate/internal/services/relay"
	"github.com/urfave/cli/v3"
)

func projectFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "email", Usage: "Visitor email", Required: true},
		&cli.StringFlag{Name: "project", Usage: "Project name", Required: true},
		&cli.StringFlag{Name: "project-type", Usage: "Project type", Value: "live"},
		&cli.StringFlag{Name: "redirect", Usage: "Project link opened after access"},
	}
}

func visitorCommand() *cli.Command {
	return &cli.Command{
		Name:  "visitor",
		Usage: "Walk through the visitor gate against a running API",
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Check for an active session",
				Flags:  projectFlags(),
				Action: visitorCheck,
			},
			{
				Name:  "access",
				Usage: "Check, request a code and verify it",
				Flags: append(projectFlags(),
					&cli.StringFlag{Name: "name", Usage: "Visitor name", Required: true},
					&cli.StringFlag{Name: "otp", Usage: "Code to verify (prompted when empty)"},
				),
				Action: visitorAccess,
			},
		},
	}
}

func newVisitorFlow(cmd *cli.Command) *client.VisitorFlow {
	cfg := config.NewFromCLI(cmd)
	var notifier notify.Notifier
	if cfg.Relay.Enabled() {
		notifier = relay.New(&cfg.Relay)
	}
	return client.NewVisitorFlow(client.New(cfg.Client.APIURL), notifier, cfg.Access.DefaultTimezone)
}

func projectFrom(cmd *cli.Command) client.Project {
	return client.Project{
		Name:        cmd.String("project"),
		Type:        cmd.String("project-type"),
		RedirectURL: cmd.String("redirect"),
	}
}

func visitorCheck(ctx context.Context, cmd *cli.Command) error {
	status := newVisitorFlow(cmd).Check(ctx, cmd.String("email"), projectFrom(cmd))
	return printJSON(cmd, status)
}

func visitorAccess(ctx context.Context, cmd *cli.Command) error {
	out := cmd.Root().Writer
	flow := newVisitorFlow(cmd)

	status := flow.Check(ctx, cmd.String("email"), projectFrom(cmd))
	if status.HasActiveSession {
		_, err := fmt.Fprintf(out, "Welcome back, %s. Opening %s\n", status.VisitorName, status.RedirectURL)
		return err
	}

	req, err := flow.RequestOTP(ctx, cmd.String("name"))
	if err != nil {
		return err
	}
	if req.DemoMode {
		fmt.Fprintf(out, "OTP sent! (Demo mode - OTP: %s)\n", req.OTP)
	} else {
		fmt.Fprintln(out, "OTP sent to owner's email. Please enter the OTP to continue.")
	}

	code := cmd.String("otp")
	if code == "" {
		fmt.Fprint(out, "OTP: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading code: %w", err)
		}
		code = strings.TrimSpace(line)
	}

	v, err := flow.Verify(ctx, code)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\nOpening %s\n", v.Message, flow.RedirectURL())
	return err
}
