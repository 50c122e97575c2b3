package models

import "time"

type Shelter struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Location  string    `yaml:"location"`
	SortOrder int64     `yaml:"sort_order" json:"sort_order"`
	IsActive  bool      `yaml:"is_active" json:"is_active"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
}
