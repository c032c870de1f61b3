package telegram

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lesson_schedule_bot/internal/app"
	"lesson_schedule_bot/internal/domain/schedule"
)

const dateLayout = "2006-01-02"

// noDayOff disables the default day off in /plan and /preview.
const noDayOff = "-"

var errUsage = errors.New("invalid command arguments")

func parseDate(val string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, val, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must look like 2024-09-01", errUsage, val)
	}
	return d, nil
}

func parsePositive(name, val string) (int, error) {
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive number, got %q", errUsage, name, val)
	}
	return n, nil
}

func parseID(val string) (int64, error) {
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: ID must be a positive number, got %q", errUsage, val)
	}
	return id, nil
}

// parseStep reads the optional [step] [day_off] arguments on top of defaults.
func parseStep(args []string, defaults schedule.StepPolicy) (schedule.StepPolicy, error) {
	step := defaults
	if len(args) > 0 {
		n, err := parsePositive("step", args[0])
		if err != nil {
			return step, err
		}
		step.StepDays = n
	}
	if len(args) > 1 {
		if args[1] == noDayOff {
			step.SkipWeekday = sql.Null[time.Weekday]{}
		} else {
			d, err := schedule.ParseWeekday(args[1])
			if err != nil {
				return step, fmt.Errorf("%w: %v", errUsage, err)
			}
			step = step.SkipOn(d)
		}
	}
	return step, nil
}

// parsePlanArgs parses "/plan <title...> <YYYY-MM-DD> <count> [step] [day_off]".
// Every word before the first date belongs to the title.
func parsePlanArgs(args []string, loc *time.Location, defaults schedule.StepPolicy) (app.CoursePlan, error) {
	dateAt := -1
	for i, a := range args {
		if _, err := time.ParseInLocation(dateLayout, a, loc); err == nil {
			dateAt = i
			break
		}
	}
	if dateAt < 1 || len(args) < dateAt+2 || len(args) > dateAt+4 {
		return app.CoursePlan{}, errUsage
	}
	start, err := parseDate(args[dateAt], loc)
	if err != nil {
		return app.CoursePlan{}, err
	}
	count, err := parsePositive("count", args[dateAt+1])
	if err != nil {
		return app.CoursePlan{}, err
	}
	step, err := parseStep(args[dateAt+2:], defaults)
	if err != nil {
		return app.CoursePlan{}, err
	}
	return app.CoursePlan{
		Title:        strings.Join(args[:dateAt], " "),
		StartDate:    start,
		Step:         step,
		LessonsCount: count,
	}, nil
}

// parsePreviewArgs parses "/preview <YYYY-MM-DD> <take> [step] [day_off] [exclude,...]".
// The preview sequence is unbounded.
func parsePreviewArgs(args []string, loc *time.Location, defaults schedule.StepPolicy) (app.PreviewRequest, error) {
	if len(args) < 2 || len(args) > 5 {
		return app.PreviewRequest{}, errUsage
	}
	start, err := parseDate(args[0], loc)
	if err != nil {
		return app.PreviewRequest{}, err
	}
	take, err := parsePositive("take", args[1])
	if err != nil {
		return app.PreviewRequest{}, err
	}
	stepArgs := args[2:]
	if len(stepArgs) > 2 {
		stepArgs = stepArgs[:2]
	}
	step, err := parseStep(stepArgs, defaults)
	if err != nil {
		return app.PreviewRequest{}, err
	}
	req := app.PreviewRequest{StartDate: start, Step: step, Take: take}
	if len(args) == 5 {
		req.Exclude, err = schedule.ParseWeekdays(args[4])
		if err != nil {
			return app.PreviewRequest{}, fmt.Errorf("%w: %v", errUsage, err)
		}
	}
	return req, nil
}
