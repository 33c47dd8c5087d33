// Пакет callback кодирует и декодирует компактные токены действий,
// которые ездят в callback_data инлайн-кнопок. Токен декодируется заново
// на каждом нажатии и не несет никакого состояния, кроме того, что
// закодировано в нем самом и в живом тексте сообщения.
package callback

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ExchangeBot/internal/constants"
	"ExchangeBot/internal/reasons"
)

// Verb - действие, закодированное в токене.
type Verb int

const (
	VerbUnknown Verb = iota
	VerbAssignOrder
	VerbShowCompleteConfirm
	VerbCancelCompleteConfirm
	VerbConfirmComplete
	VerbShowCancelReasons
	VerbSelectCancelReason
	VerbConfirmCancel
	VerbBackToOrderButtons
)

// String возвращает имя действия для логов.
func (v Verb) String() string {
	switch v {
	case VerbAssignOrder:
		return "AssignOrder"
	case VerbShowCompleteConfirm:
		return "ShowCompleteConfirm"
	case VerbCancelCompleteConfirm:
		return "CancelCompleteConfirm"
	case VerbConfirmComplete:
		return "ConfirmComplete"
	case VerbShowCancelReasons:
		return "ShowCancelReasons"
	case VerbSelectCancelReason:
		return "SelectCancelReason"
	case VerbConfirmCancel:
		return "ConfirmCancel"
	case VerbBackToOrderButtons:
		return "BackToOrderButtons"
	default:
		return "Unknown"
	}
}

// Token - декодированный callback-токен.
type Token struct {
	Verb        Verb
	OrderID     string
	ReasonIndex int // осмыслен только для SelectCancelReason / ConfirmCancel
}

// IsMutation сообщает, меняет ли действие статус заказа.
// Все остальные действия - чистая навигация: перерисовка одного сообщения.
func (t Token) IsMutation() bool {
	switch t.Verb {
	case VerbAssignOrder, VerbConfirmComplete, VerbConfirmCancel:
		return true
	default:
		return false
	}
}

// ActionClass возвращает класс действия для rate-лимитера.
func (t Token) ActionClass() string {
	if t.IsMutation() {
		return constants.ACTION_CLASS_MUTATION
	}
	return constants.ACTION_CLASS_NAVIGATION
}

// ErrDecode - любой некорректный или неизвестный токен.
// Такие нажатия логируются и молча отбрасываются.
var ErrDecode = errors.New("некорректный callback-токен")

// ErrTooLong - закодированный токен не влезает в лимит callback_data.
var ErrTooLong = errors.New("callback-токен превышает лимит Telegram")

type verbSpec struct {
	verb      Verb
	prefix    string
	hasReason bool
}

var verbSpecs = []verbSpec{
	{VerbAssignOrder, constants.CALLBACK_PREFIX_TAKE_ORDER, false},
	{VerbShowCompleteConfirm, constants.CALLBACK_PREFIX_COMPLETE_ORDER, false},
	{VerbCancelCompleteConfirm, constants.CALLBACK_PREFIX_CANCEL_COMPLETE, false},
	{VerbConfirmComplete, constants.CALLBACK_PREFIX_CONFIRM_COMPLETE, false},
	{VerbShowCancelReasons, constants.CALLBACK_PREFIX_CANCEL_ORDER, false},
	{VerbSelectCancelReason, constants.CALLBACK_PREFIX_SELECT_REASON, true},
	{VerbConfirmCancel, constants.CALLBACK_PREFIX_CONFIRM_CANCEL, true},
	{VerbBackToOrderButtons, constants.CALLBACK_PREFIX_BACK_TO_ORDER, false},
}

// decodeOrder - те же спеки, но отсортированные по убыванию длины префикса.
// Матчим самый длинный префикс первым, иначе cancel_order_ можно ошибочно
// разобрать более коротким пересекающимся префиксом.
var decodeOrder []verbSpec

func init() {
	decodeOrder = make([]verbSpec, len(verbSpecs))
	copy(decodeOrder, verbSpecs)
	sort.SliceStable(decodeOrder, func(i, j int) bool {
		return len(decodeOrder[i].prefix) > len(decodeOrder[j].prefix)
	})
}

func specFor(verb Verb) (verbSpec, bool) {
	for _, s := range verbSpecs {
		if s.verb == verb {
			return s, true
		}
	}
	return verbSpec{}, false
}

// Encode собирает callback_data для токена.
func Encode(t Token) (string, error) {
	spec, ok := specFor(t.Verb)
	if !ok {
		return "", fmt.Errorf("%w: неизвестное действие %d", ErrDecode, int(t.Verb))
	}
	if t.OrderID == "" {
		return "", fmt.Errorf("%w: пустой orderID", ErrDecode)
	}

	var data string
	if spec.hasReason {
		if _, err := reasons.ByIndex(t.ReasonIndex); err != nil {
			return "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
		data = spec.prefix + t.OrderID + "_" + strconv.Itoa(t.ReasonIndex)
	} else {
		data = spec.prefix + t.OrderID
	}

	if len(data) > constants.MAX_CALLBACK_DATA_BYTES {
		return "", fmt.Errorf("%w: %d байт в %q", ErrTooLong, len(data), data)
	}
	return data, nil
}

// Decode разбирает callback_data в токен.
//
// Алгоритм: матчим самый длинный известный префикс, отрезаем его, дальше
// остаток - это orderID, а для действий с причиной - orderID и числовой
// индекс причины после последнего '_'. Сам orderID может содержать '_',
// поэтому для действий с причиной берем все до последнего '_'-сегмента,
// а для остальных - весь остаток целиком. Индекс вне каталога причин -
// ошибка декодирования, а не значение по умолчанию.
func Decode(data string) (Token, error) {
	if len(data) > constants.MAX_CALLBACK_DATA_BYTES {
		return Token{}, fmt.Errorf("%w: %d байт", ErrTooLong, len(data))
	}

	for _, spec := range decodeOrder {
		if !strings.HasPrefix(data, spec.prefix) {
			continue
		}
		rest := data[len(spec.prefix):]
		if rest == "" {
			return Token{}, fmt.Errorf("%w: пустой orderID в %q", ErrDecode, data)
		}

		if !spec.hasReason {
			return Token{Verb: spec.verb, OrderID: rest}, nil
		}

		cut := strings.LastIndex(rest, "_")
		if cut <= 0 || cut == len(rest)-1 {
			return Token{}, fmt.Errorf("%w: нет индекса причины в %q", ErrDecode, data)
		}
		orderID := rest[:cut]
		idx, err := strconv.Atoi(rest[cut+1:])
		if err != nil {
			return Token{}, fmt.Errorf("%w: нечисловой индекс причины в %q", ErrDecode, data)
		}
		if _, err := reasons.ByIndex(idx); err != nil {
			return Token{}, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return Token{Verb: spec.verb, OrderID: orderID, ReasonIndex: idx}, nil
	}

	return Token{}, fmt.Errorf("%w: неизвестный префикс в %q", ErrDecode, data)
}
