package models

// Option is one durable key/value configuration entry, the platform's
// options-table analog.
type Option struct {
	Name  string `gorm:"primaryKey"`
	Value string
}
