package store

// Decision records one alert resolution for audit and reconciliation.
type Decision struct {
	ID               int64  `json:"id"`
	UUID             string `json:"uuid"`
	OrderID          string `json:"order_id"`
	Cause            string `json:"cause"`
	Outcome          string `json:"outcome"`
	Auto             bool   `json:"auto"`
	RemainingSeconds int    `json:"remaining_seconds"`
	CreatedAt        string `json:"created_at"`
}

func (db *DB) InsertDecision(uuid, orderID, cause, outcome string, auto bool, remainingSeconds int) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO decisions (uuid, order_id, cause, outcome, auto, remaining_seconds)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid, orderID, cause, outcome, auto, remainingSeconds)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (db *DB) ListDecisions(limit int) ([]Decision, error) {
	rows, err := db.Query(`
		SELECT id, uuid, order_id, cause, outcome, auto, remaining_seconds, created_at
		FROM decisions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var decisions []Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.ID, &d.UUID, &d.OrderID, &d.Cause, &d.Outcome, &d.Auto, &d.RemainingSeconds, &d.CreatedAt); err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

func (db *DB) ListDecisionsByOrder(orderID string) ([]Decision, error) {
	rows, err := db.Query(`
		SELECT id, uuid, order_id, cause, outcome, auto, remaining_seconds, created_at
		FROM decisions WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var decisions []Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.ID, &d.UUID, &d.OrderID, &d.Cause, &d.Outcome, &d.Auto, &d.RemainingSeconds, &d.CreatedAt); err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}
