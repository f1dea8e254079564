package models

type Menu struct {
	Base
	Name  string     `gorm:"not null" json:"name"`
	Items []MenuItem `gorm:"foreignKey:MenuID" json:"items,omitempty"`
}
