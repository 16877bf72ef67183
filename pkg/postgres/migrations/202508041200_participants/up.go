package _202508041200_participants

import (
	"database/sql"

	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB) error {
	queries := []string{
		`create table if not exists participants (
			address varchar(255) not null,
			total_staked numeric not null default 0,
			first_stake_time timestamp with time zone,
			is_active boolean not null default true,
			stake_count bigint not null default 0,
			unstake_count bigint not null default 0,
			referral_bonus_points numeric not null default 0,
			pre_weighted_share numeric,
			advisory_grade varchar(255),
			advisory_rank bigint not null default 0,
			advisory_percentile double precision not null default 0,
			created_at timestamp with time zone default current_timestamp,
			updated_at timestamp with time zone default current_timestamp,
			primary key (address)
		)`,
		`create index if not exists idx_participants_total_staked on participants (total_staked desc)`,
		`create index if not exists idx_participants_is_active on participants (is_active)`,
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
	return "202508041200_participants"
}
