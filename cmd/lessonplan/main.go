// Command lessonplan prints the lesson dates of a course without touching the database.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"lesson_schedule_bot/internal/domain/schedule"
	"lesson_schedule_bot/internal/infra/logger"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

type planFlags struct {
	start    string
	count    int
	step     int
	skip     string
	take     int
	exclude  []string
	logLevel string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	var f planFlags
	cmd := &cobra.Command{
		Use:   "lessonplan",
		Short: "Print the lesson dates of a course",
		Long: "Prints one line per lesson date. The first lesson falls step days after --start; " +
			"a lesson landing on the --skip weekday moves to the next day.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		PreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(logger.Options{Level: f.logLevel, Output: errOut})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dates, err := plan(f)
			if err != nil {
				return err
			}
			for _, d := range dates {
				fmt.Fprintf(out, "%s %s\n", d.Format(dateLayout), d.Weekday().String()[:3])
			}
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	flags := cmd.Flags()
	flags.StringVar(&f.start, "start", "", "seed date, YYYY-MM-DD (required)")
	flags.IntVar(&f.count, "count", 10, "number of lessons, 0 for an unbounded sequence")
	flags.IntVar(&f.step, "step", 1, "days between lessons")
	flags.StringVar(&f.skip, "skip", "", "day off, e.g. sunday, вс or 7")
	flags.IntVar(&f.take, "take", 0, "print at most this many dates, required with --count 0")
	flags.StringSliceVar(&f.exclude, "exclude", nil, "weekdays to leave out of the output")
	flags.StringVar(&f.logLevel, "log-level", "warn", "log level")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func plan(f planFlags) ([]time.Time, error) {
	log := logger.Component("lessonplan")

	seed, err := time.ParseInLocation(dateLayout, f.start, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --start: %w", err)
	}
	step := schedule.StepPolicy{StepDays: f.step}
	if f.skip != "" {
		day, err := schedule.ParseWeekday(f.skip)
		if err != nil {
			return nil, fmt.Errorf("invalid --skip: %w", err)
		}
		step = step.SkipOn(day)
	}
	var exclude []time.Weekday
	for _, e := range f.exclude {
		days, err := schedule.ParseWeekdays(e)
		if err != nil {
			return nil, fmt.Errorf("invalid --exclude: %w", err)
		}
		exclude = append(exclude, days...)
	}
	if f.take < 0 {
		return nil, errors.New("--take must not be negative")
	}

	bound := schedule.Unbounded()
	switch {
	case f.count > 0:
		bound = schedule.Bounded(f.count)
	case f.count < 0:
		return nil, fmt.Errorf("--count must not be negative, got %d", f.count)
	case f.take == 0:
		return nil, errors.New("--take is required when --count is 0")
	}

	g, err := schedule.NewDateGenerator(seed, step, bound)
	if err != nil {
		return nil, err
	}
	keep := schedule.ExcludeWeekdays(exclude...)
	if _, bounded := bound.Limit(); !bounded && !schedule.Reaches(seed, step, keep) {
		return nil, errors.New("every date of the sequence falls on an excluded weekday")
	}

	var it schedule.Iterator[time.Time] = schedule.Filter[time.Time](g, keep)
	if f.take > 0 {
		it = schedule.Prefix(it, f.take)
	}
	dates := schedule.Collect(it)
	log.WithField("step", step.StepDays).WithField("bound", bound.String()).
		WithField("dates", len(dates)).Debug("Sequence generated")
	return dates, nil
}
