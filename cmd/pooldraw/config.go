package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var callerFlag = cli.StringFlag{
	Name:     "caller",
	Usage:    "caller address sent with state-mutating requests",
	Required: false,
}

var configCommand = cli.Command{
	Name:   "config",
	Usage:  "Print local configuration of the pooldraw CLI",
	Action: printConfigAction,
	Subcommands: []*cli.Command{
		{
			Name:   "connect",
			Usage:  "connect <DAEMON_URL> [--caller <ADDRESS>]",
			Action: connectAction,
			Flags: []cli.Flag{
				&callerFlag,
			},
		},
	},
}

func printConfigAction(ctx *cli.Context) error {
	state, err := getState()
	if err != nil {
		return err
	}

	return printJSON(state)
}

func connectAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("missing daemon URL")
	}

	url := ctx.Args().First()

	updateState := map[string]string{
		"daemon_url": url,
	}
	if caller := ctx.String("caller"); len(caller) > 0 {
		updateState["caller_address"] = caller
	}

	if err := setState(updateState); err != nil {
		return err
	}

	return printJSON(updateState)
}
