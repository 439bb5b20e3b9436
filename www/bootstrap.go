package www

import (
	"log"

	"vendoredge/store"
)

// EnsureDefaultOperator seeds the first console login when the operators
// table is empty. The password must be changed through the console.
func EnsureDefaultOperator(db *store.DB) error {
	exists, err := db.OperatorExists()
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	hash, err := hashPassword("vendoredge")
	if err != nil {
		return err
	}
	if _, err := db.CreateOperator("admin", hash); err != nil {
		return err
	}
	log.Printf("created default operator 'admin' (change the password)")
	return nil
}
