package main

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"
)

var recipientFlag = cli.StringFlag{
	Name:     "recipient",
	Usage:    "reward recipient address",
	Required: true,
}

var auctionCommand = cli.Command{
	Name:   "auction",
	Usage:  "Print the current auction cycle",
	Action: currentAuctionAction,
	Subcommands: []*cli.Command{
		{
			Name:   "get",
			Usage:  "get <SEQUENCE>",
			Action: getAuctionAction,
		},
	},
}

var rngCommand = cli.Command{
	Name:   "rng",
	Usage:  "Start the rng auction for the current cycle",
	Action: startRngAuctionAction,
	Flags: []cli.Flag{
		&recipientFlag,
	},
}

var drawCommand = cli.Command{
	Name:   "draw",
	Usage:  "Complete the draw auction for the current cycle",
	Action: completeDrawAction,
	Flags: []cli.Flag{
		&recipientFlag,
	},
	Subcommands: []*cli.Command{
		{
			Name:   "poll",
			Usage:  "check whether the draw can be completed",
			Action: canCompleteDrawAction,
		},
	},
}

func currentAuctionAction(ctx *cli.Context) error {
	client, err := getClientFromState()
	if err != nil {
		return err
	}

	var auction map[string]interface{}
	if err := client.get("/v1/auctions/current", &auction); err != nil {
		return err
	}
	return printJSON(auction)
}

func getAuctionAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("missing sequence")
	}
	sequence, err := strconv.ParseUint(ctx.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid sequence: %s", ctx.Args().First())
	}

	client, err := getClientFromState()
	if err != nil {
		return err
	}

	var auction map[string]interface{}
	if err := client.get(
		fmt.Sprintf("/v1/auctions/%d", sequence), &auction,
	); err != nil {
		return err
	}
	return printJSON(auction)
}

func startRngAuctionAction(ctx *cli.Context) error {
	client, err := getClientFromState()
	if err != nil {
		return err
	}

	var resp map[string]interface{}
	if err := client.post(
		"/v1/auctions/rng",
		map[string]string{"recipient": ctx.String("recipient")},
		&resp,
	); err != nil {
		return err
	}
	return printJSON(resp)
}

func completeDrawAction(ctx *cli.Context) error {
	client, err := getClientFromState()
	if err != nil {
		return err
	}

	var auction map[string]interface{}
	if err := client.post(
		"/v1/auctions/draw",
		map[string]string{"recipient": ctx.String("recipient")},
		&auction,
	); err != nil {
		return err
	}
	return printJSON(auction)
}

func canCompleteDrawAction(ctx *cli.Context) error {
	client, err := getClientFromState()
	if err != nil {
		return err
	}

	var resp map[string]interface{}
	if err := client.get("/v1/auctions/can-complete", &resp); err != nil {
		return err
	}
	return printJSON(resp)
}
