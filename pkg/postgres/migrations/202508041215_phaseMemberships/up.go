package _202508041215_phaseMemberships

import (
	"database/sql"

	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB) error {
	queries := []string{
		`create table if not exists phase_memberships (
			id varchar(255) not null,
			address varchar(255) not null,
			phase_number bigint not null,
			state varchar(255) not null,
			joined_at timestamp with time zone not null,
			joined_within24h boolean not null default false,
			stake_tx_during_phase boolean not null default false,
			unstaked_during_phase boolean not null default false,
			created_at timestamp with time zone default current_timestamp,
			updated_at timestamp with time zone default current_timestamp,
			primary key (id)
		)`,
		`create unique index if not exists idx_membership_address_phase on phase_memberships (address, phase_number)`,
		`create index if not exists idx_memberships_phase_number on phase_memberships (phase_number)`,
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
	return "202508041215_phaseMemberships"
}
