package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli"

	"github.com/campusdesk/campusdesk/pkg/recommend"
)

var (
	recProgram  string
	recGPA      float64
	recEnrolled string
	recCatalog  string

	recommendFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "program, p",
			Usage:       "declared program, e.g. \"Computer Science\"",
			Destination: &recProgram,
		},
		cli.Float64Flag{
			Name:        "gpa, g",
			Usage:       "current GPA on a 4.0 scale",
			Destination: &recGPA,
		},
		cli.StringFlag{
			Name:        "enrolled, e",
			Usage:       "comma separated enrolled course ids, e.g. CS101,CS202",
			Destination: &recEnrolled,
		},
		cli.StringFlag{
			Name:        "catalog, c",
			Usage:       "path of a SQLite course catalog (default: built-in)",
			Destination: &recCatalog,
		},
	}
)

func recommendCourses(ctx *cli.Context) error {
	studentId := ctx.Args().First()
	if studentId == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil
	}
	log := newLogger()
	defer log.Close()

	catalogPath := recCatalog
	if catalogPath == "" {
		catalogPath = cfg.CatalogDB
	}
	catalog := recommend.DefaultCatalog()
	if catalogPath != "" {
		loaded, err := recommend.OpenCatalog(catalogPath)
		if err != nil {
			log.Warning("catalog %s unavailable, using built-in: %s", catalogPath, err.Error())
		} else {
			catalog = loaded
		}
	}

	var enrolled []recommend.Enrollment
	for _, id := range strings.Split(recEnrolled, ",") {
		if id = strings.TrimSpace(id); id != "" {
			enrolled = append(enrolled, recommend.Enrollment{CourseID: id})
		}
	}

	engine := recommend.NewEngine(catalog, recommend.WithEngineLogger(log))
	recs := engine.Recommend(recommend.StudentProfile{
		StudentID: studentId,
		Program:   recProgram,
		GPA:       recGPA,
	}, enrolled)

	if len(recs) == 0 {
		fmt.Println("no recommendations")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MATCH\tCOURSE\tNAME\tDIFFICULTY\tPREREQS OK\tREASON")
	for _, r := range recs {
		fmt.Fprintf(w, "%d%%\t%s\t%s\t%s\t%v\t%s\n",
			r.MatchPercentage, r.ID, r.Name, r.Difficulty, r.HasPrerequisites, r.Reason)
	}
	w.Flush()
	return nil
}
