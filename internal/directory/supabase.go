package directory

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// SupabaseConfig points at a table holding one row per customer, with the
// same column names as the JSON fields of Customer.
type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
	Table          string
}

// SupabaseSource reads the directory from a Supabase (PostgREST) table.
type SupabaseSource struct {
	client *supabase.Client
	table  string
}

func NewSupabaseSource(cfg SupabaseConfig) (*SupabaseSource, error) {
	if cfg.URL == "" || cfg.ServiceRoleKey == "" {
		return nil, fmt.Errorf("missing Supabase configuration: SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY required")
	}
	client, err := supabase.NewClient(cfg.URL, cfg.ServiceRoleKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	table := cfg.Table
	if table == "" {
		table = "customers"
	}
	return &SupabaseSource{client: client, table: table}, nil
}

// Load returns the rows ordered by id so directory order is stable.
func (s *SupabaseSource) Load(ctx context.Context) ([]Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []Customer
	_, err := s.client.From(s.table).
		Select("*", "", false).
		Order("id", nil).
		ExecuteTo(&records)
	if err != nil {
		return nil, fmt.Errorf("supabase select %s: %w", s.table, err)
	}
	return records, nil
}
