// Package tasks — жизненный цикл заданий: создание с резервированием оплаты,
// заполнение слотов и деактивация.
package tasks

import "serotonyl.ru/taskmarket/internal/ledger"

// CreateInput — данные нового задания.
type CreateInput struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Link         string `json:"link"`
	PricePerUser int64  `json:"pricePerUser"`
	TotalSlots   int    `json:"totalSlots"`
}

// View — задание для показа другим пользователям.
type View struct {
	Task       *ledger.Task `json:"task"`
	OwnerEmail string       `json:"ownerEmail"` // Замаскирован для посторонних
}
