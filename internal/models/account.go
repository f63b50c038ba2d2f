package models

// Account is a row of the accounts table.
type Account struct {
	AccountID   string `db:"account_id"`
	Code        string `db:"code"`
	Name        string `db:"name"`
	Category    string `db:"category"`
	Description string `db:"description"`
	IsActive    bool   `db:"is_active"`
	AuditFields
}
