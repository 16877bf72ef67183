package _202508041245_phaseSettlements

import (
	"database/sql"

	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB) error {
	queries := []string{
		`create table if not exists phase_settlements (
			phase_number bigint not null,
			empty_population boolean not null default false,
			settled_at timestamp with time zone not null,
			created_at timestamp with time zone default current_timestamp,
			primary key (phase_number)
		)`,
	}
	for _, query := range queries {
		res := grm.Exec(query)
		if res.Error != nil {
			return res.Error
		}
	}
	return nil
}

func (m *Migration) GetName() string {
	return "202508041245_phaseSettlements"
}
