package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/danfoss-alerts/cmd"
)

func main() {
	lambdaFlag := &cli.BoolFlag{
		Name:    "lambda",
		Usage:   "run as an AWS Lambda handler",
		EnvVars: []string{"DANFOSS_LAMBDA"},
		Value:   false,
	}
	listenAddrFlag := &cli.StringFlag{
		Name:  "listen-addr",
		Usage: "webhook listen address, overrides LISTEN_ADDR",
	}

	app := &cli.App{
		Name:  "danfoss-alerts",
		Usage: "floor heating temperature alerts for Danfoss Ally",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "check floor temperatures and notify when above threshold",
				Action: cmd.CheckCommand,
				Flags:  []cli.Flag{lambdaFlag},
			},
			{
				Name:   "rotate",
				Usage:  "rotate the Danfoss API access token",
				Action: cmd.RotateCommand,
				Flags:  []cli.Flag{lambdaFlag},
			},
			{
				Name:   "bot",
				Usage:  "serve the Telegram bot webhook",
				Action: cmd.BotCommand,
				Flags:  []cli.Flag{lambdaFlag, listenAddrFlag},
			},
			{
				Name:   "schedule",
				Usage:  "run check and rotate on cron schedules",
				Action: cmd.ScheduleCommand,
				Flags:  []cli.Flag{lambdaFlag, listenAddrFlag},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
