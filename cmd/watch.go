package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/urfave/cli"

	"github.com/campusdesk/campusdesk/internal/credstore"
	"github.com/campusdesk/campusdesk/pkg/portal"
)

var (
	watchPoll int

	watchFlags = []cli.Flag{
		cli.IntFlag{
			Name:        "poll-interval, p",
			Usage:       "polling fallback interval in seconds",
			Destination: &watchPoll,
		},
	}
)

func watch(ctx *cli.Context) error {
	studentId := ctx.Args().First()
	if studentId == "" || studentId == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil
	}
	if watchPoll > 0 {
		cfg.PollIntervalSeconds = watchPoll
	}

	log := newLogger()
	defer log.Close()
	tokens := credstore.New()
	fetcher := &portal.HTTPFetcher{BaseURL: cfg.PortalURL, Tokens: tokens}
	dialer := &portal.WSDialer{URL: cfg.PushURL, Tokens: tokens, Log: log}

	policy := portal.DefaultReconnectPolicy()
	policy.MaxAttempts = cfg.ReconnectAttempts

	engine := portal.New(fetcher, dialer,
		portal.WithLogger(log),
		portal.WithPollInterval(cfg.PollInterval()),
		portal.WithReconnectPolicy(policy),
	)
	defer engine.Close()

	if err := engine.Init(context.Background(), studentId); err != nil {
		printRuntimeErr(ctx, "watch", "init", err)
		return nil
	}

	printDeadlines(engine.Deadlines())
	unsubscribe := engine.Subscribe(func(deadlines []portal.Deadline) {
		printDeadlines(deadlines)
	})
	defer unsubscribe()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	fmt.Println("\nstopping...")
	return nil
}

func printDeadlines(deadlines []portal.Deadline) {
	if len(deadlines) == 0 {
		fmt.Println("no deadlines")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DUE\tTITLE\tCOURSE\tTYPE\tPRIORITY\tSTATUS")
	for _, d := range deadlines {
		fmt.Fprintf(w, "%s %s\t%s\t%s\t%s\t%s\t%s\n",
			d.DueDate, d.DueTime, d.Title, d.Course, d.Type, d.Priority, d.Status)
	}
	w.Flush()
	fmt.Println()
}
