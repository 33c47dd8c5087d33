// Пакет reasons содержит статический каталог причин отмены заказа.
// Индекс причины используется как компактное wire-представление в
// callback-токенах (scr_/ccl_), поэтому каталог только дополняется в конец:
// перестановка элементов сломала бы токены в уже отправленных клавиатурах.
package reasons

import "fmt"

// Reason - одна причина отмены.
type Reason struct {
	Index int    // позиция в каталоге, wire-представление
	ID    string // стабильный семантический идентификатор, пишется в БД
	Label string // текст кнопки и карточки
}

var catalog = []Reason{
	{Index: 0, ID: "payment_not_received", Label: "Оплата не поступила"},
	{Index: 1, ID: "wrong_amount", Label: "Неверная сумма оплаты"},
	{Index: 2, ID: "requisites_expired", Label: "Реквизиты устарели"},
	{Index: 3, ID: "client_request", Label: "По просьбе клиента"},
	{Index: 4, ID: "suspicious_activity", Label: "Подозрительная операция"},
	{Index: 5, ID: "other", Label: "Другая причина"},
}

// All возвращает копию каталога в стабильном порядке.
func All() []Reason {
	out := make([]Reason, len(catalog))
	copy(out, catalog)
	return out
}

// Count возвращает количество причин в каталоге.
func Count() int {
	return len(catalog)
}

// ByIndex возвращает причину по индексу. Индекс вне каталога - ошибка,
// а не молчаливое значение по умолчанию.
func ByIndex(index int) (Reason, error) {
	if index < 0 || index >= len(catalog) {
		return Reason{}, fmt.Errorf("индекс причины отмены %d вне каталога (0-%d)", index, len(catalog)-1)
	}
	return catalog[index], nil
}

// LabelByID возвращает текст причины по ее идентификатору из БД.
// Для неизвестного идентификатора возвращает его же, чтобы старые
// записи оставались читаемыми в отчетах.
func LabelByID(id string) string {
	for _, r := range catalog {
		if r.ID == id {
			return r.Label
		}
	}
	return id
}
