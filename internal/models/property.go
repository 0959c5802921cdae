package models

// PropertyRecord is one row of the reference dataset: a sold property with its
// location and actual price.
type PropertyRecord struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Location (filter keys)
	Voivodeship string `gorm:"type:varchar(64);not null;index" json:"voivodeship"`
	City        string `gorm:"type:varchar(128);index" json:"city"`
	County      string `gorm:"type:varchar(128);index" json:"county"`

	// Attributes
	Area             float64 `gorm:"type:decimal(10,2);not null" json:"area"`
	Rooms            int     `gorm:"type:int;not null" json:"rooms"`
	YearConstructed  int     `gorm:"type:int" json:"year_constructed"`
	Heating          string  `gorm:"type:varchar(64)" json:"heating"`
	BuildingMaterial string  `gorm:"type:varchar(64)" json:"building_material"`
	BuildingType     string  `gorm:"type:varchar(64)" json:"building_type"`
	Market           string  `gorm:"type:varchar(32)" json:"market"`

	Price float64 `gorm:"type:decimal(14,2);not null" json:"price"`
}

// TableName pins the table name
func (PropertyRecord) TableName() string {
	return "property_records"
}

// Attributes returns the model-facing attributes of the record
func (r PropertyRecord) Attributes() PropertyAttributes {
	return PropertyAttributes{
		Area:             r.Area,
		Rooms:            r.Rooms,
		YearConstructed:  r.YearConstructed,
		Heating:          r.Heating,
		BuildingMaterial: r.BuildingMaterial,
		BuildingType:     r.BuildingType,
		Market:           r.Market,
		Voivodeship:      r.Voivodeship,
		City:             r.City,
		County:           r.County,
	}
}
