package cmd

import (
	"fmt"

	"github.com/urfave/cli"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var currentBuildArgs BuildArgs

func Execute(args []string, bArgs BuildArgs) error {
	currentBuildArgs = bArgs
	app := cli.App{
		Name:                  "campusdesk",
		HelpName:              "campusdesk",
		Usage:                 "A student portal deadline and course companion.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "campusdesk <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          usageErrorCallback,
		Commands: []cli.Command{
			{
				Name:                   "watch",
				Aliases:                []string{"w"},
				Usage:                  "follow deadline updates live",
				Action:                 watch,
				OnUsageError:           usageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            WatchDescription,
				UseShortOptionHandling: true,
				Flags:                  watchFlags,
			},
			{
				Name:                   "upcoming",
				Aliases:                []string{"u"},
				Usage:                  "list upcoming deadlines",
				Action:                 upcoming,
				OnUsageError:           usageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            UpcomingDescription,
				UseShortOptionHandling: true,
				Flags:                  upcomingFlags,
			},
			{
				Name:                   "recommend",
				Aliases:                []string{"r"},
				Usage:                  "show course recommendations",
				Action:                 recommendCourses,
				OnUsageError:           usageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            RecommendDescription,
				UseShortOptionHandling: true,
				Flags:                  recommendFlags,
			},
			{
				Name:               "login",
				Usage:              "store the portal access token",
				Action:             login,
				OnUsageError:       usageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        LoginDescription,
			},
			{
				Name:               "logout",
				Usage:              "remove the stored portal access token",
				Action:             logout,
				OnUsageError:       usageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        LogoutDescription,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of campusdesk",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             getVersion,
			},
		},
	}
	return app.Run(args)
}
