package store

// Operator is a console user allowed to reach the admin endpoints.
type Operator struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"created_at"`
}

func (db *DB) GetOperator(username string) (*Operator, error) {
	o := &Operator{}
	err := db.QueryRow(`SELECT id, username, password_hash, created_at FROM operators WHERE username = ?`, username).
		Scan(&o.ID, &o.Username, &o.PasswordHash, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (db *DB) CreateOperator(username, passwordHash string) (int64, error) {
	res, err := db.Exec(`INSERT INTO operators (username, password_hash) VALUES (?, ?)`, username, passwordHash)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (db *DB) UpdateOperatorPassword(username, passwordHash string) error {
	_, err := db.Exec(`UPDATE operators SET password_hash = ? WHERE username = ?`, passwordHash, username)
	return err
}

func (db *DB) OperatorExists() (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM operators`).Scan(&count)
	return count > 0, err
}
