package telegram

import (
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Telegram 回测与调参完成后的消息推送通道
type Telegram struct {
	logger *zap.Logger
	bot    *tele.Bot
	chatId string
}

func NewTelegram(logger *zap.Logger, token, chatId string) (*Telegram, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	t := &Telegram{
		logger: logger,
		bot:    bot,
		chatId: chatId,
	}

	bot.Handle("/start", func(c tele.Context) error {
		return c.Send("cfsquant 已就绪，回测与调参任务完成后会在此推送结果。")
	})
	bot.Handle("/id", func(c tele.Context) error {
		return c.Send(cast.ToString(c.Chat().ID))
	})

	return t, nil
}

func (t *Telegram) Start() {
	t.logger.Info("telegram bot started")
	t.bot.Start()
}

// Notify 向配置的会话推送一条文本消息，失败只记日志不中断业务
func (t *Telegram) Notify(msg string) {
	if t == nil || t.chatId == "" {
		return
	}
	chatId := cast.ToInt64(t.chatId)
	if _, err := t.bot.Send(tele.ChatID(chatId), msg); err != nil {
		t.logger.Error("telegram notify failed", zap.Error(err))
	}
}
