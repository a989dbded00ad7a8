// database/order_store.go
package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/bathywatch/backend/models"
)

// CreateDataOrder inserts a new point store order and returns it with its id.
func CreateDataOrder(order models.DataOrder) (models.DataOrder, error) {
	if DB == nil {
		return models.DataOrder{}, fmt.Errorf("database connection is not initialized")
	}

	res, err := DB.Exec(`
		INSERT INTO data_orders (
			user_id, bbox_id, data_type, noaa_ref_id, check_status_url,
			status, download_url, ordered_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		order.UserID, order.BBoxID, order.DataType, order.NOAARefID,
		order.CheckStatusURL, order.Status, order.DownloadURL, order.OrderedAt,
	)
	if err != nil {
		return models.DataOrder{}, fmt.Errorf("failed to insert data order for bbox %d: %w", order.BBoxID, err)
	}

	order.ID, err = res.LastInsertId()
	if err != nil {
		return models.DataOrder{}, fmt.Errorf("failed to get inserted order id: %w", err)
	}
	return order, nil
}

const orderSelect = `
	SELECT id, user_id, bbox_id, data_type, noaa_ref_id, check_status_url,
	       status, download_url, ordered_at, updated_at
	FROM data_orders
`

func scanOrderRows(rows *sql.Rows) ([]models.DataOrder, error) {
	var orders []models.DataOrder
	for rows.Next() {
		var o models.DataOrder
		var downloadURL sql.NullString
		err := rows.Scan(
			&o.ID, &o.UserID, &o.BBoxID, &o.DataType, &o.NOAARefID,
			&o.CheckStatusURL, &o.Status, &downloadURL, &o.OrderedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan data order row: %w", err)
		}
		if downloadURL.Valid {
			o.DownloadURL = downloadURL.String
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating data order rows: %w", err)
	}
	return orders, nil
}

// GetDataOrderByID fetches one order.
func GetDataOrderByID(id int64) (models.DataOrder, error) {
	if DB == nil {
		return models.DataOrder{}, fmt.Errorf("database connection is not initialized")
	}

	rows, err := DB.Query(orderSelect+"WHERE id = ?", id)
	if err != nil {
		return models.DataOrder{}, fmt.Errorf("failed to query data order %d: %w", id, err)
	}
	defer rows.Close()

	orders, err := scanOrderRows(rows)
	if err != nil {
		return models.DataOrder{}, err
	}
	if len(orders) == 0 {
		return models.DataOrder{}, ErrNotFound
	}
	return orders[0], nil
}

// GetDataOrdersForUser returns all orders placed by one user, newest first.
func GetDataOrdersForUser(userID int64) ([]models.DataOrder, error) {
	if DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}

	rows, err := DB.Query(orderSelect+"WHERE user_id = ? ORDER BY ordered_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query data orders for user %d: %w", userID, err)
	}
	defer rows.Close()
	return scanOrderRows(rows)
}

// GetDataOrdersForBBox returns all orders referencing one bounding box.
func GetDataOrdersForBBox(bboxID int64) ([]models.DataOrder, error) {
	if DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}

	rows, err := DB.Query(orderSelect+"WHERE bbox_id = ? ORDER BY ordered_at DESC", bboxID)
	if err != nil {
		return nil, fmt.Errorf("failed to query data orders for bbox %d: %w", bboxID, err)
	}
	defer rows.Close()
	return scanOrderRows(rows)
}

// UpdateDataOrderStatus records the latest known status and download URL for
// an order.
func UpdateDataOrderStatus(id int64, status models.OrderStatus, downloadURL string) error {
	if DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	res, err := DB.Exec(`
		UPDATE data_orders SET status = ?, download_url = ? WHERE id = ?
	`, status, downloadURL, id)
	if err != nil {
		return fmt.Errorf("failed to update status for data order %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		// RowsAffected is 0 both for a missing row and for a no-op update.
		checkErr := DB.QueryRow("SELECT EXISTS(SELECT 1 FROM data_orders WHERE id = ?)", id).Scan(&exists)
		if checkErr == nil && !exists {
			return ErrNotFound
		}
		if checkErr != nil && !errors.Is(checkErr, sql.ErrNoRows) {
			return fmt.Errorf("failed to check data order %d existence: %w", id, checkErr)
		}
	}
	return nil
}
