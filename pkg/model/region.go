package model

// Region is a row of the reference table of valid provider regions. It is
// consulted for validation and default population only; it carries no
// behavior.
type Region struct {
	RegionID    uint   `gorm:"column:region_id;primaryKey"`
	RegionName  string `gorm:"column:region_name;uniqueIndex;not null"`
	Description string `gorm:"column:region_description"`
}

func (Region) TableName() string {
	return "aws_regions"
}
