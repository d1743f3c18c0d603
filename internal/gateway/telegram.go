package gateway

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/school-notify/internal/models"
)

// TelegramClient — альтернативный драйвер: шлём родителям в Telegram,
// адресом служит chat id контакта. Контакты без chat id этим
// транспортом недостижимы.
type TelegramClient struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramClient(token string) (*TelegramClient, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramClient{bot: bot}, nil
}

func (g *TelegramClient) Address(c *models.ParentContact) (string, bool) {
	if c.TelegramChatID == nil {
		return "", false
	}
	return strconv.FormatInt(*c.TelegramChatID, 10), true
}

func (g *TelegramClient) Send(ctx context.Context, destination, body string) (*SendResult, error) {
	chatID, err := strconv.ParseInt(destination, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram: адрес %q не chat id", destination)
	}
	sent, err := g.bot.Send(tgbotapi.NewMessage(chatID, body))
	if err != nil {
		return nil, err
	}
	return &SendResult{
		MessageID:   strconv.Itoa(sent.MessageID),
		RawResponse: fmt.Sprintf(`{"message_id":%d}`, sent.MessageID),
	}, nil
}

func (g *TelegramClient) TestConnection(ctx context.Context) (*DeviceInfo, error) {
	me, err := g.bot.GetMe()
	if err != nil {
		return nil, err
	}
	return &DeviceInfo{
		DeviceID: strconv.FormatInt(me.ID, 10),
		Name:     me.UserName,
	}, nil
}

// У Telegram нет квоты отправок, возвращаем только состояние.
func (g *TelegramClient) CheckDeviceStatus(ctx context.Context) (models.ConnState, *int, error) {
	if _, err := g.bot.GetMe(); err != nil {
		return models.ConnError, nil, err
	}
	return models.ConnConnected, nil, nil
}
