package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"abacengine/builder"
	"abacengine/policy"
)

// policyRow is the GORM model backing SQLStore. Declarative sub-documents
// (actions/actors/subjects/rule) are stored as JSON text columns rather
// than normalized tables: the policy document shape is owned by builder,
// not by the schema, so the row just carries it through.
type policyRow struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;size:255"`
	Description string
	Effect      string `gorm:"size:16"`
	Actions     string `gorm:"type:jsonb"`
	Actors      string `gorm:"type:jsonb"`
	Subjects    string `gorm:"type:jsonb"`
	Rule        string `gorm:"type:jsonb"`
}

func (policyRow) TableName() string { return "policies" }

// SQLStore backs the PRP with a PostgreSQL table, grounded on the
// teacher's GORM-based PostgreSQLStorage.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore opens a connection per config (nil uses DefaultDatabaseConfig)
// and migrates the policies table.
func NewSQLStore(config *DatabaseConfig) (*SQLStore, error) {
	db, err := NewDatabaseConnection(config)
	if err != nil {
		return nil, err
	}
	store := &SQLStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("store: failed to migrate policies table: %w", err)
	}
	return store, nil
}

func (s *SQLStore) migrate() error {
	return s.db.AutoMigrate(&policyRow{})
}

func (s *SQLStore) LoadAll(ctx context.Context) ([]*policy.Policy, error) {
	var rows []policyRow
	if result := s.db.WithContext(ctx).Find(&rows); result.Error != nil {
		return nil, fmt.Errorf("store: failed to load policies: %w", result.Error)
	}

	records := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		record, err := rowToRecord(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return builder.New().BuildPolicies(records)
}

func (s *SQLStore) LoadByName(ctx context.Context, name string) (*policy.Policy, error) {
	var row policyRow
	result := s.db.WithContext(ctx).Where("name = ?", name).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Name: name}
		}
		return nil, fmt.Errorf("store: failed to load policy %q: %w", name, result.Error)
	}
	record, err := rowToRecord(row)
	if err != nil {
		return nil, err
	}
	return builder.New().BuildPolicy(record)
}

// Put upserts a single policy row, JSON-encoding its declarative fields.
// It is the write path a PAP-facing admin tool would use; the PDP/PRP
// never call it.
func (s *SQLStore) Put(ctx context.Context, name, description string, effect string, actions, actors, subjects []string, rule map[string]any) error {
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return err
	}
	actorsJSON, err := json.Marshal(actors)
	if err != nil {
		return err
	}
	subjectsJSON, err := json.Marshal(subjects)
	if err != nil {
		return err
	}
	ruleJSON, err := json.Marshal(rule)
	if err != nil {
		return err
	}

	row := policyRow{
		Name:        name,
		Description: description,
		Effect:      effect,
		Actions:     string(actionsJSON),
		Actors:      string(actorsJSON),
		Subjects:    string(subjectsJSON),
		Rule:        string(ruleJSON),
	}
	return s.db.WithContext(ctx).
		Where("name = ?", name).
		Assign(row).
		FirstOrCreate(&policyRow{Name: name}).Error
}

func rowToRecord(row policyRow) (map[string]any, error) {
	var actions, actors, subjects []any
	var rule map[string]any

	if err := json.Unmarshal([]byte(row.Actions), &actions); err != nil {
		return nil, fmt.Errorf("store: policy %q has malformed actions column: %w", row.Name, err)
	}
	if err := json.Unmarshal([]byte(row.Actors), &actors); err != nil {
		return nil, fmt.Errorf("store: policy %q has malformed actors column: %w", row.Name, err)
	}
	if err := json.Unmarshal([]byte(row.Subjects), &subjects); err != nil {
		return nil, fmt.Errorf("store: policy %q has malformed subjects column: %w", row.Name, err)
	}
	if err := json.Unmarshal([]byte(row.Rule), &rule); err != nil {
		return nil, fmt.Errorf("store: policy %q has malformed rule column: %w", row.Name, err)
	}

	return map[string]any{
		"name":        row.Name,
		"description": row.Description,
		"effect":      row.Effect,
		"actions":     actions,
		"actors":      actors,
		"subjects":    subjects,
		"rules":       rule,
	}, nil
}
