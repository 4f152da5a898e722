package models

// City is seeded administratively; stocks belong to exactly one city.
type City struct {
	ID        int64   `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name      string  `gorm:"column:name;not null"`
	Latitude  float64 `gorm:"column:latitude;not null;default:0"`
	Longitude float64 `gorm:"column:longitude;not null;default:0"`
	Stocks    []Stock `gorm:"foreignKey:CityID;constraint:OnDelete:CASCADE"`
}

func (City) TableName() string { return "cities" }
