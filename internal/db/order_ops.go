package db

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"ExchangeBot/internal/constants"
	"ExchangeBot/internal/models"
)

const orderColumns = `id, status, operator_chat_id, crypto_amount, crypto_currency,
    uah_amount, deposit_address, client_chat_id, client_contact, cancel_reason_id,
    created_at, updated_at, processed_at`

func scanOrder(row *sql.Row) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.Status, &o.OperatorChatID, &o.CryptoAmount, &o.CryptoCurrency,
		&o.UahAmount, &o.DepositAddress, &o.ClientChatID, &o.ClientContact, &o.CancelReasonID,
		&o.CreatedAt, &o.UpdatedAt, &o.ProcessedAt)
	return o, err
}

// CreateOrder создает новый заказ в статусе pending и возвращает его.
func CreateOrder(cryptoAmount float64, cryptoCurrency string, uahAmount float64, depositAddress string, clientChatID int64, clientContact string) (models.Order, error) {
	if !constants.SupportedCurrencies[cryptoCurrency] {
		return models.Order{}, fmt.Errorf("неподдерживаемая валюта: %s", cryptoCurrency)
	}
	if cryptoAmount <= 0 || uahAmount <= 0 {
		return models.Order{}, fmt.Errorf("суммы заказа должны быть положительными")
	}

	id := uuid.New().String()
	client := sql.NullInt64{Int64: clientChatID, Valid: clientChatID != 0}
	contact := sql.NullString{String: clientContact, Valid: clientContact != ""}

	row := DB.QueryRow(`
        INSERT INTO orders (id, status, crypto_amount, crypto_currency, uah_amount,
            deposit_address, client_chat_id, client_contact, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        RETURNING `+orderColumns,
		id, constants.STATUS_PENDING, cryptoAmount, cryptoCurrency, uahAmount,
		depositAddress, client, contact)

	order, err := scanOrder(row)
	if err != nil {
		log.Printf("CreateOrder: Ошибка создания заказа: %v", err)
		return models.Order{}, err
	}
	log.Printf("CreateOrder: Создан заказ %s (%s %s)", order.ID, cryptoCurrency, order.Status)
	return order, nil
}

// GetOrderByID возвращает заказ по ID. Второй результат false, если заказа нет.
func GetOrderByID(orderID string) (models.Order, bool, error) {
	row := DB.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return models.Order{}, false, nil
	}
	if err != nil {
		log.Printf("GetOrderByID: Ошибка чтения заказа %s: %v", orderID, err)
		return models.Order{}, false, err
	}
	return order, true, nil
}

// OrderStore выполняет условные переходы статусов заказа. Каждый переход -
// один условный UPDATE с RETURNING: проверка статуса и запись нового
// происходят атомарно, гонка двух операторов разрешается на стороне БД.
type OrderStore struct{}

// NewOrderStore возвращает хранилище заказов поверх глобального соединения.
func NewOrderStore() *OrderStore {
	return &OrderStore{}
}

func (s *OrderStore) FindByID(orderID string) (models.Order, bool, error) {
	return GetOrderByID(orderID)
}

// AssignIfAvailable переводит заказ pending/paid в processing и закрепляет
// оператора. ok=false, если заказ не найден или уже взят.
func (s *OrderStore) AssignIfAvailable(orderID string, operatorChatID int64) (models.Order, bool, error) {
	row := DB.QueryRow(`
        UPDATE orders
        SET status = $1, operator_chat_id = $2, updated_at = NOW()
        WHERE id = $3 AND status IN ($4, $5)
        RETURNING `+orderColumns,
		constants.STATUS_PROCESSING, operatorChatID, orderID,
		constants.STATUS_PENDING, constants.STATUS_PAID)
	return returningResult(row, "AssignIfAvailable", orderID)
}

// CompleteIfProcessing завершает заказ в статусе processing.
// requiredOperator=0 отключает проверку закрепленного оператора.
func (s *OrderStore) CompleteIfProcessing(orderID string, requiredOperator int64) (models.Order, bool, error) {
	row := DB.QueryRow(`
        UPDATE orders
        SET status = $1, processed_at = NOW(), updated_at = NOW()
        WHERE id = $2 AND status = $3
          AND ($4 = 0 OR operator_chat_id = $4)
        RETURNING `+orderColumns,
		constants.STATUS_COMPLETED, orderID, constants.STATUS_PROCESSING, requiredOperator)
	return returningResult(row, "CompleteIfProcessing", orderID)
}

// CancelIfActive отменяет активный заказ с фиксацией причины. Проверка
// оператора действует только для processing: у pending/paid оператора нет.
func (s *OrderStore) CancelIfActive(orderID string, reasonID string, requiredOperator int64) (models.Order, bool, error) {
	row := DB.QueryRow(`
        UPDATE orders
        SET status = $1, cancel_reason_id = $2, updated_at = NOW()
        WHERE id = $3 AND status IN ($4, $5, $6)
          AND ($7 = 0 OR status <> $6 OR operator_chat_id = $7)
        RETURNING `+orderColumns,
		constants.STATUS_CANCELLED, reasonID, orderID,
		constants.STATUS_PENDING, constants.STATUS_PAID, constants.STATUS_PROCESSING,
		requiredOperator)
	return returningResult(row, "CancelIfActive", orderID)
}

// MarkPaidIfPending отмечает поступление оплаты по заказу pending.
func (s *OrderStore) MarkPaidIfPending(orderID string) (models.Order, bool, error) {
	row := DB.QueryRow(`
        UPDATE orders
        SET status = $1, updated_at = NOW()
        WHERE id = $2 AND status = $3
        RETURNING `+orderColumns,
		constants.STATUS_PAID, orderID, constants.STATUS_PENDING)
	return returningResult(row, "MarkPaidIfPending", orderID)
}

func returningResult(row *sql.Row, op, orderID string) (models.Order, bool, error) {
	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return models.Order{}, false, nil
	}
	if err != nil {
		log.Printf("%s: Ошибка перехода заказа %s: %v", op, orderID, err)
		return models.Order{}, false, err
	}
	return order, true, nil
}

// GetOrdersForReport возвращает заказы за период для выгрузки в Excel.
func GetOrdersForReport(from, to time.Time) ([]models.Order, error) {
	rows, err := DB.Query(`
        SELECT `+orderColumns+`
        FROM orders
        WHERE created_at >= $1 AND created_at < $2
        ORDER BY created_at`, from, to)
	if err != nil {
		log.Printf("GetOrdersForReport: Ошибка выборки заказов: %v", err)
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.Status, &o.OperatorChatID, &o.CryptoAmount, &o.CryptoCurrency,
			&o.UahAmount, &o.DepositAddress, &o.ClientChatID, &o.ClientContact, &o.CancelReasonID,
			&o.CreatedAt, &o.UpdatedAt, &o.ProcessedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
