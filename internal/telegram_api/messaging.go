package telegram_api

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

// EditMessage редактирует текст и клавиатуру существующего сообщения.
// Ошибка "message is not modified" не считается ошибкой: контент уже
// в нужном состоянии.
func EditMessage(botClient *BotClient, chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	if botClient == nil || botClient.api == nil {
		return fmt.Errorf("BotClient не инициализирован")
	}

	var editMsgConfig tgbotapi.EditMessageTextConfig
	if keyboard != nil {
		editMsgConfig = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *keyboard)
	} else {
		editMsgConfig = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}

	_, err := botClient.Request(editMsgConfig)
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "message is not modified") {
		log.Printf("EditMessage: Сообщение не изменено (ожидаемо): chatID=%d, MessageID=%d", chatID, messageID)
		return nil
	}
	log.Printf("EditMessage: Ошибка редактирования chatID=%d, MessageID=%d: %v", chatID, messageID, err)
	return err
}

// SendCardMessage отправляет карточку заказа в чат, при необходимости в
// конкретный топик. topicID=0 - отправка в общий чат. Отправка идет через
// MakeRequest, потому что типизированный конфиг не несет message_thread_id.
func SendCardMessage(botClient *BotClient, chatID int64, topicID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	if botClient == nil || botClient.api == nil {
		return tgbotapi.Message{}, fmt.Errorf("BotClient не инициализирован")
	}

	params := tgbotapi.Params{
		"chat_id": strconv.FormatInt(chatID, 10),
		"text":    text,
	}
	if topicID != 0 {
		params["message_thread_id"] = strconv.Itoa(topicID)
	}
	if keyboard != nil {
		markup, err := json.Marshal(keyboard)
		if err != nil {
			return tgbotapi.Message{}, fmt.Errorf("ошибка сериализации клавиатуры: %w", err)
		}
		params["reply_markup"] = string(markup)
	}

	resp, err := botClient.MakeRequest("sendMessage", params)
	if err != nil {
		log.Printf("SendCardMessage: Ошибка отправки в чат %d (топик %d): %v", chatID, topicID, err)
		return tgbotapi.Message{}, err
	}

	var sent tgbotapi.Message
	if err := json.Unmarshal(resp.Result, &sent); err != nil {
		return tgbotapi.Message{}, fmt.Errorf("ошибка разбора ответа sendMessage: %w", err)
	}
	return sent, nil
}

// SendMessage отправляет обычное текстовое сообщение.
func SendMessage(botClient *BotClient, chatID int64, text string) (tgbotapi.Message, error) {
	if botClient == nil || botClient.api == nil {
		return tgbotapi.Message{}, fmt.Errorf("BotClient не инициализирован")
	}
	return botClient.Send(tgbotapi.NewMessage(chatID, text))
}

// SendPhotoBytes отправляет картинку из памяти (QR-код адреса депозита).
func SendPhotoBytes(botClient *BotClient, chatID int64, name string, data []byte, caption string) (tgbotapi.Message, error) {
	if botClient == nil || botClient.api == nil {
		return tgbotapi.Message{}, fmt.Errorf("BotClient не инициализирован")
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	photo.Caption = caption
	return botClient.Send(photo)
}

// AnswerCallback отвечает на нажатие кнопки. alert=true показывает
// модальное окно, иначе всплывающий тост.
func AnswerCallback(botClient *BotClient, callbackQueryID string, text string, alert bool) {
	if botClient == nil || botClient.api == nil {
		log.Println("AnswerCallback: BotClient не инициализирован.")
		return
	}
	callback := tgbotapi.CallbackConfig{
		CallbackQueryID: callbackQueryID,
		Text:            text,
		ShowAlert:       alert,
	}
	if _, err := botClient.Request(callback); err != nil {
		log.Printf("AnswerCallback: Ошибка ответа на callback %s: %v", callbackQueryID, err)
	}
}
