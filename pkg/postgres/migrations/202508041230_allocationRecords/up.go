package _202508041230_allocationRecords

import (
	"database/sql"

	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB) error {
	queries := []string{
		`create table if not exists allocation_records (
			id varchar(255) not null,
			phase_number bigint not null,
			address varchar(255) not null,
			share_percent numeric not null default 0,
			token_amount numeric not null default 0,
			total_points numeric not null default 0,
			stake_rank integer not null default 0,
			score_rank integer not null default 0,
			calculated_at timestamp with time zone not null,
			created_at timestamp with time zone default current_timestamp,
			primary key (id)
		)`,
		`create unique index if not exists idx_allocation_phase_address on allocation_records (phase_number, address)`,
		`create index if not exists idx_allocations_score_rank on allocation_records (phase_number, score_rank)`,
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
	return "202508041230_allocationRecords"
}
