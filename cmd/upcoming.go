package cmd

import (
	"context"
	"time"

	"github.com/urfave/cli"

	"github.com/campusdesk/campusdesk/internal/credstore"
	"github.com/campusdesk/campusdesk/pkg/portal"
)

var (
	upcomingDays int

	upcomingFlags = []cli.Flag{
		cli.IntFlag{
			Name:        "days, d",
			Usage:       "window size in days (default: 30)",
			Destination: &upcomingDays,
		},
	}
)

func upcoming(ctx *cli.Context) error {
	studentId := ctx.Args().First()
	if studentId == "" || studentId == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil
	}
	days := upcomingDays
	if days <= 0 {
		days = DEF_UPCOMING_DAYS
	}

	log := newLogger()
	defer log.Close()
	fetcher := &portal.HTTPFetcher{BaseURL: cfg.PortalURL, Tokens: credstore.New()}

	now := time.Now()
	deadlines, err := fetcher.FetchDeadlines(context.Background(), studentId)
	if err != nil {
		log.Error("deadline fetch failed, showing placeholder data: %s", err.Error())
		deadlines = portal.PlaceholderDeadlines(studentId, now)
	}
	portal.SortDeadlines(deadlines)
	printDeadlines(portal.UpcomingWindow(deadlines, now, days))
	return nil
}
