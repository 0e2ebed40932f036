package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var closerCommand = cli.Command{
	Name:   "closer",
	Usage:  "Print the authorized draw closer",
	Action: getDrawCloserAction,
	Subcommands: []*cli.Command{
		{
			Name:   "set",
			Usage:  "set <ADDRESS> (owner only)",
			Action: setDrawCloserAction,
		},
	},
}

func getDrawCloserAction(ctx *cli.Context) error {
	client, err := getClientFromState()
	if err != nil {
		return err
	}

	var resp map[string]interface{}
	if err := client.get("/v1/admin/closer", &resp); err != nil {
		return err
	}
	return printJSON(resp)
}

func setDrawCloserAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("missing closer address")
	}

	client, err := getClientFromState()
	if err != nil {
		return err
	}

	var resp map[string]interface{}
	if err := client.put(
		"/v1/admin/closer",
		map[string]string{"closer": ctx.Args().First()},
		&resp,
	); err != nil {
		return err
	}
	return printJSON(resp)
}
