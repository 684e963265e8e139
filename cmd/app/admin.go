// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"codeberg.org/oliverandrich/portfolio-gate/internal/client"
	"codeberg.org/oliverandrich/portfolio-gate/internal/config"
	"codeberg.org/oliverandrich/portfolio-gate/internal/models"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

func adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Drive the admin dashboard against a running API",
		Commands: []*cli.Command{
			{
				Name:  "signup",
				Usage: "Request an admin account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "confirm", Required: true, Usage: "Password confirmation"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					res, err := newDashboard(cmd).Signup(ctx,
						cmd.String("username"), cmd.String("email"), cmd.String("password"), cmd.String("confirm"))
					if err != nil {
						return err
					}
					return printJSON(cmd, res)
				},
			},
			{
				Name:  "verify",
				Usage: "Approve a pending account with the owner's code",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "otp", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					res, err := newDashboard(cmd).VerifySignup(ctx, cmd.String("email"), cmd.String("otp"))
					if err != nil {
						return err
					}
					return printJSON(cmd, res)
				},
			},
			{
				Name:  "login",
				Usage: "Log in and print the bearer token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					res, err := newDashboard(cmd).Login(ctx, cmd.String("username"), cmd.String("password"))
					if err != nil {
						return err
					}
					return printJSON(cmd, res)
				},
			},
			{
				Name:  "tables",
				Usage: "List browsable tables",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					tables, err := newDashboard(cmd).Tables(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd, tables)
				},
			},
			{
				Name:      "rows",
				Usage:     "Print the rows of a table",
				ArgsUsage: "<table>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return errors.New("usage: admin rows <table>")
					}
					rows, err := newDashboard(cmd).Rows(ctx, cmd.Args().First())
					if err != nil {
						return err
					}
					return printJSON(cmd, rows)
				},
			},
			{
				Name:      "update",
				Usage:     "Update fields of a row",
				ArgsUsage: "<table> <id>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "set", Usage: "field=value, repeatable; quote the value to force a string", Required: true},
				},
				Action: adminUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a row",
				ArgsUsage: "<table> <id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					table, id, err := rowArgs(cmd)
					if err != nil {
						return err
					}
					if err := newDashboard(cmd).Delete(ctx, table, id); err != nil {
						return err
					}
					_, err = fmt.Fprintln(cmd.Root().Writer, "Record deleted successfully")
					return err
				},
			},
			{
				Name:      "access",
				Usage:     "Switch an access request on or off",
				ArgsUsage: "<id> on|off",
				Action:    adminAccess,
			},
			{
				Name:  "stats",
				Usage: "Print dashboard counters",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					stats, err := newDashboard(cmd).Stats(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd, stats)
				},
			},
			{
				Name:      "reply",
				Usage:     "Reply to a contact message",
				ArgsUsage: "<message id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "message", Required: true, Usage: "Reply text"},
				},
				Action: adminReply,
			},
		},
	}
}

func newDashboard(cmd *cli.Command) *client.Dashboard {
	cfg := config.NewFromCLI(cmd)
	api := client.New(cfg.Client.APIURL)
	api.SetToken(cfg.Client.Token)
	return client.NewDashboard(api)
}

func rowArgs(cmd *cli.Command) (string, int64, error) {
	if cmd.Args().Len() != 2 {
		return "", 0, errors.New("expected <table> <id>")
	}
	id, err := strconv.ParseInt(cmd.Args().Get(1), 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid id %q", cmd.Args().Get(1))
	}
	return cmd.Args().First(), id, nil
}

func adminUpdate(ctx context.Context, cmd *cli.Command) error {
	table, id, err := rowArgs(cmd)
	if err != nil {
		return err
	}
	fields, err := parseAssignments(cmd.StringSlice("set"))
	if err != nil {
		return err
	}
	if err := newDashboard(cmd).Update(ctx, table, id, fields); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.Root().Writer, "Record updated successfully")
	return err
}

// parseAssignments turns field=value pairs into a JSON payload. Values
// that read as bool, integer or null keep that type unless they are quoted:
// name="2024" and name='true' are strings.
func parseAssignments(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, want field=value", p)
		}
		fields[key] = parseValue(raw)
	}
	return fields, nil
}

func parseValue(raw string) any {
	if n := len(raw); n >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[n-1] == raw[0] {
		return raw[1 : n-1]
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return raw
}

func adminAccess(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return errors.New("usage: admin access <id> on|off")
	}
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", cmd.Args().First())
	}
	state := cmd.Args().Get(1)
	if state != "on" && state != "off" {
		return fmt.Errorf("state must be on or off, got %q", state)
	}
	if err := newDashboard(cmd).SetAccess(ctx, id, state == "on"); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.Root().Writer, "Access %s for request %d\n", state, id)
	return err
}

func adminReply(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("usage: admin reply <message id> --message TEXT")
	}
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", cmd.Args().First())
	}

	d := newDashboard(cmd)
	rows, err := d.Rows(ctx, models.TableContactMessages)
	if err != nil {
		return err
	}
	row, found := lo.Find(rows.Data, func(r map[string]any) bool {
		n, _ := r["id"].(float64)
		return int64(n) == id
	})
	if !found {
		return fmt.Errorf("message %d not found", id)
	}
	msg, err := client.MessageFromRow(row)
	if err != nil {
		return err
	}

	if err := d.OpenMessage(ctx, msg); err != nil {
		return err
	}
	res, err := d.Reply(ctx, msg, cmd.String("message"))
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}

func printJSON(cmd *cli.Command, v any) error {
	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
