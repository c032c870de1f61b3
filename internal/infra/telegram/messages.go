package telegram

import (
	"fmt"
	"strings"
	"time"

	"lesson_schedule_bot/internal/app"
	"lesson_schedule_bot/internal/domain/lesson"
	"lesson_schedule_bot/internal/domain/schedule"
	"lesson_schedule_bot/internal/domain/teacher"
)

const (
	msgUnauthorized  = "Ошибка: У вас нет прав для выполнения этой команды."
	msgNotRegistered = "Вы не зарегистрированы как преподаватель. Пожалуйста, попросите администратора добавить вас в систему."
	msgInactive      = "Ваш аккаунт преподавателя неактивен. Пожалуйста, свяжитесь с администратором."
	msgInternalError = "Произошла ошибка. Пожалуйста, попробуйте позже."

	usagePlan    = "Используйте: /plan <название> <ГГГГ-ММ-ДД> <кол-во уроков> [шаг в днях] [выходной|-]"
	usagePreview = "Используйте: /preview <ГГГГ-ММ-ДД> <кол-во дат> [шаг в днях] [выходной|-] [исключить,дни]"
	usageLessons = "Используйте: /lessons [кол-во]"
	usageExtend  = "Используйте: /extend <ID курса>"
)

var lessonStatusLabels = map[lesson.Status]string{
	lesson.StatusScheduled: "запланирован",
	lesson.StatusConfirmed: "подтверждён",
	lesson.StatusCancelled: "отменён",
}

func describeStep(step schedule.StepPolicy) string {
	text := fmt.Sprintf("каждые %d дн.", step.StepDays)
	if step.SkipWeekday.Valid {
		text += fmt.Sprintf(", выходной: %s", app.WeekdayShort(step.SkipWeekday.V))
	}
	return text
}

func planSummary(course *lesson.Course, lessons []*lesson.Lesson) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Курс «%s» (ID: %d) создан: %d уроков, %s.\n\n",
		course.Title, course.ID, len(lessons), describeStep(course.StepPolicy()))
	for _, l := range lessons {
		fmt.Fprintf(&b, "%d. %s\n", l.Number, app.FormatLessonDate(l.Date))
	}
	return b.String()
}

func previewSummary(dates []time.Time, step schedule.StepPolicy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Предварительный расчёт (%s):\n\n", describeStep(step))
	for i, d := range dates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, app.FormatLessonDate(d))
	}
	return b.String()
}

func upcomingSummary(upcoming []app.UpcomingLesson) string {
	if len(upcoming) == 0 {
		return "Ближайших уроков нет."
	}
	var b strings.Builder
	b.WriteString("Ближайшие уроки:\n\n")
	for _, u := range upcoming {
		fmt.Fprintf(&b, "%s: «%s», урок №%d (%s)\n",
			app.FormatLessonDate(u.Lesson.Date), u.CourseTitle, u.Lesson.Number, lessonStatusLabels[u.Lesson.Status])
	}
	return b.String()
}

func extendSummary(course *lesson.Course, added *lesson.Lesson) string {
	return fmt.Sprintf("В курс «%s» добавлен урок №%d на %s.", course.Title, added.Number, app.FormatLessonDate(added.Date))
}

func teacherList(title string, teachers []*teacher.Teacher) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s ---\n", title)
	for _, t := range teachers {
		status := "Деактивирован"
		if t.IsActive {
			status = "Активен"
		}
		fmt.Fprintf(&b, "ID: %d, Telegram ID: %d, Имя: %s, Статус: %s\n", t.ID, t.TelegramID, t.FullName(), status)
	}
	return b.String()
}
