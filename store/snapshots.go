package store

import "vendoredge/marketplace"

// OrderSnapshot is the last-seen copy of a polled order. It feeds the
// console order list; the engine itself never reads it back.
type OrderSnapshot struct {
	OrderID           string  `json:"order_id"`
	CustomerName      string  `json:"customer_name"`
	ItemsCount        int     `json:"items_count"`
	TotalAmount       float64 `json:"total_amount"`
	AutoAcceptSeconds int     `json:"auto_accept_seconds"`
	Status            string  `json:"status"`
	OrderCreatedAt    string  `json:"order_created_at"`
	FirstSeenAt       string  `json:"first_seen_at"`
	UpdatedAt         string  `json:"updated_at"`
}

// UpsertOrderSnapshot inserts or refreshes the snapshot for one order.
func (db *DB) UpsertOrderSnapshot(o marketplace.Order) error {
	_, err := db.Exec(`
		INSERT INTO order_snapshots (order_id, customer_name, items_count, total_amount, auto_accept_seconds, status, order_created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(order_id) DO UPDATE SET
			customer_name = excluded.customer_name,
			items_count = excluded.items_count,
			total_amount = excluded.total_amount,
			auto_accept_seconds = excluded.auto_accept_seconds,
			status = excluded.status,
			updated_at = datetime('now','localtime')`,
		o.ID, o.CustomerName, o.ItemsCount, o.TotalAmount, o.AutoAcceptSeconds, o.Status, o.CreatedAt)
	return err
}

// MarkOrderStatus records a locally requested status change on the snapshot.
func (db *DB) MarkOrderStatus(orderID, status string) error {
	_, err := db.Exec(`UPDATE order_snapshots SET status=?, updated_at=datetime('now','localtime') WHERE order_id=?`, status, orderID)
	return err
}

func (db *DB) ListOrderSnapshots() ([]OrderSnapshot, error) {
	rows, err := db.Query(`
		SELECT order_id, customer_name, items_count, total_amount, auto_accept_seconds, status, order_created_at, first_seen_at, updated_at
		FROM order_snapshots ORDER BY first_seen_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var snaps []OrderSnapshot
	for rows.Next() {
		var s OrderSnapshot
		if err := rows.Scan(&s.OrderID, &s.CustomerName, &s.ItemsCount, &s.TotalAmount, &s.AutoAcceptSeconds, &s.Status, &s.OrderCreatedAt, &s.FirstSeenAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

func (db *DB) GetOrderSnapshot(orderID string) (*OrderSnapshot, error) {
	s := &OrderSnapshot{}
	err := db.QueryRow(`
		SELECT order_id, customer_name, items_count, total_amount, auto_accept_seconds, status, order_created_at, first_seen_at, updated_at
		FROM order_snapshots WHERE order_id = ?`, orderID).
		Scan(&s.OrderID, &s.CustomerName, &s.ItemsCount, &s.TotalAmount, &s.AutoAcceptSeconds, &s.Status, &s.OrderCreatedAt, &s.FirstSeenAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}
