package repository

import (
	"fmt"

	"airport_manager/internal/models"

	"gorm.io/gorm"
)

// Order items have no lifecycle of their own: they are written together with
// their order and replaced wholesale when the order is edited.

func insertItems(tx *gorm.DB, orderID uint, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]models.OrderItem, len(items))
	for i, it := range items {
		it.ID = 0
		it.OrderID = orderID
		rows[i] = it
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	copy(items, rows)
	return nil
}

func replaceItems(tx *gorm.DB, orderID uint, items []models.OrderItem) error {
	if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	return insertItems(tx, orderID, items)
}
