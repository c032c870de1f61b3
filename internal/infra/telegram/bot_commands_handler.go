// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"fmt"

	"lesson_schedule_bot/internal/app"
	"lesson_schedule_bot/internal/domain/teacher"
	idb "lesson_schedule_bot/internal/infra/database" // For ErrTeacherNotFound

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

type senderRole int

const (
	roleUnknown senderRole = iota
	roleAdmin
	roleTeacher
	roleInactiveTeacher
)

func (r senderRole) String() string {
	switch r {
	case roleAdmin:
		return "admin"
	case roleTeacher:
		return "teacher"
	case roleInactiveTeacher:
		return "inactive_teacher"
	default:
		return "unknown"
	}
}

func resolveRole(ctx context.Context, senderID int64, adminService *app.AdminService, teacherRepo teacher.Repository) (senderRole, *teacher.Teacher, error) {
	if adminService.IsAdmin(senderID) {
		return roleAdmin, nil, nil
	}
	t, err := teacherRepo.GetByTelegramID(ctx, senderID)
	if err != nil {
		if errors.Is(err, idb.ErrTeacherNotFound) {
			return roleUnknown, nil, nil
		}
		return roleUnknown, nil, err
	}
	if !t.IsActive {
		return roleInactiveTeacher, t, nil
	}
	return roleTeacher, t, nil
}

const adminHelp = "Доступные команды Администратора:\n\n" +
	"/add_teacher <TelegramID> <Имя> [Фамилия]\n - Добавить нового преподавателя.\n\n" +
	"/remove_teacher <TelegramID>\n - Деактивировать преподавателя (он перестанет получать напоминания).\n\n" +
	"/list_teachers [active|all]\n - Показать список преподавателей.\n\n" +
	"/preview <ГГГГ-ММ-ДД> <кол-во дат> [шаг] [выходной|-] [исключить,дни]\n - Рассчитать даты без сохранения.\n\n" +
	"/help\n - Показать это справочное сообщение."

const teacherHelp = "Команды преподавателя:\n\n" +
	"/plan <название> <ГГГГ-ММ-ДД> <кол-во уроков> [шаг] [выходной|-]\n" +
	" - Создать курс. Первый урок через шаг дней после даты начала. Урок, выпавший на выходной, переносится на следующий день.\n\n" +
	"/preview <ГГГГ-ММ-ДД> <кол-во дат> [шаг] [выходной|-] [исключить,дни]\n - Рассчитать даты без сохранения.\n\n" +
	"/lessons [кол-во]\n - Ближайшие уроки.\n\n" +
	"/extend <ID курса>\n - Добавить урок в конец курса.\n\n" +
	"Накануне каждого урока я спрошу, состоится ли он. Если ответить «Нет», урок будет отменён, а в конец курса добавится новый."

// RegisterBotCommands registers /start and /help. Both answer according to
// whether the sender is the admin, an active teacher, an inactive teacher or unknown.
func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	adminService *app.AdminService,
	teacherRepo teacher.Repository,
	baseLogger *logrus.Entry,
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		log := handlerLogger(startHelpLogger, "/start", c)
		role, t, err := resolveRole(ctx, c.Sender().ID, adminService, teacherRepo)
		if err != nil {
			log.WithError(err).Error("Error checking teacher status for /start command")
			return c.Send(msgInternalError)
		}
		log.WithField("role", role).Info("Processing /start command")

		switch role {
		case roleAdmin:
			return c.Send(fmt.Sprintf("Привет, Администратор %s! Я готов к работе. Используйте /help для списка команд.", c.Sender().FirstName))
		case roleTeacher:
			return c.Send(fmt.Sprintf("Привет, %s! Я помогу составить расписание уроков и напомню о каждом накануне. Используйте /help для списка команд.", t.FirstName))
		case roleInactiveTeacher:
			return c.Send(msgInactive)
		default:
			return c.Send("Привет! Я бот расписания уроков. Если вы преподаватель, пожалуйста, попросите администратора добавить вас в систему.")
		}
	})

	b.Handle("/help", func(c telebot.Context) error {
		log := handlerLogger(startHelpLogger, "/help", c)
		role, _, err := resolveRole(ctx, c.Sender().ID, adminService, teacherRepo)
		if err != nil {
			log.WithError(err).Error("Error checking teacher status for /help command")
			return c.Send(msgInternalError)
		}
		log.WithField("role", role).Info("Processing /help command")

		switch role {
		case roleAdmin:
			return c.Send(adminHelp)
		case roleTeacher:
			return c.Send(teacherHelp)
		case roleInactiveTeacher:
			return c.Send(msgInactive)
		default:
			return c.Send("Доступных команд для вас нет. " + msgNotRegistered)
		}
	})
}
