package reports

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"ExchangeBot/internal/constants"
	"ExchangeBot/internal/models"
	"ExchangeBot/internal/reasons"
)

// BuildOrdersReport собирает xlsx-файл с заказами и возвращает путь к нему.
// Вызывающий удаляет файл после отправки.
func BuildOrdersReport(orders []models.Order) (string, error) {
	f := excelize.NewFile()
	sheetName := "Заказы"
	index, _ := f.NewSheet(sheetName)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Статус", "Валюта", "Сумма крипто", "Сумма грн",
		"Оператор", "Клиент", "Причина отмены", "Создан", "Завершен"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	rowIndex := 2
	for _, o := range orders {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowIndex), o.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowIndex), constants.StatusDisplayMap[o.Status])
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowIndex), o.CryptoCurrency)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowIndex), o.CryptoAmount)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", rowIndex), o.UahAmount)
		if o.OperatorChatID.Valid {
			f.SetCellValue(sheetName, fmt.Sprintf("F%d", rowIndex), o.OperatorChatID.Int64)
		}
		if o.ClientContact.Valid {
			f.SetCellValue(sheetName, fmt.Sprintf("G%d", rowIndex), o.ClientContact.String)
		}
		if o.CancelReasonID.Valid {
			f.SetCellValue(sheetName, fmt.Sprintf("H%d", rowIndex), reasons.LabelByID(o.CancelReasonID.String))
		}
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", rowIndex), o.CreatedAt.Format("02.01.2006 15:04"))
		if o.ProcessedAt.Valid {
			f.SetCellValue(sheetName, fmt.Sprintf("J%d", rowIndex), o.ProcessedAt.Time.Format("02.01.2006 15:04"))
		}
		rowIndex++
	}

	f.SetActiveSheet(index)

	filePath := filepath.Join(os.TempDir(),
		fmt.Sprintf("orders_report_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(filePath); err != nil {
		log.Printf("BuildOrdersReport: Ошибка сохранения файла %s: %v", filePath, err)
		return "", err
	}
	return filePath, nil
}
