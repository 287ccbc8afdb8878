// Command migrate loads a flat JSON or YAML policy document, validates it,
// and seeds it into the PostgreSQL-backed store, migrating the schema
// first. Grounded on the teacher's cmd/migrate/main.go (PostgreSQL
// connection setup, migrate-then-seed flow reading from the same JSON
// files the flat-file storage reads), adapted to validate every policy
// through builder before writing it, so a malformed document fails the
// whole migration rather than seeding a broken row.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"abacengine/builder"
	"abacengine/store"
)

func main() {
	policyFile := flag.String("policies", "policies.json", "path to a JSON or YAML policy document")
	flag.Parse()

	if err := run(*policyFile); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	fmt.Println("migration and seed completed")
}

func run(policyFile string) error {
	ctx := context.Background()

	records, err := loadRecords(policyFile)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", policyFile, err)
	}

	b := builder.New()
	if _, err := b.BuildPolicies(records); err != nil {
		return fmt.Errorf("refusing to seed a malformed policy document: %w", err)
	}

	sqlStore, err := store.NewSQLStore(store.DefaultDatabaseConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, record := range records {
		name, _ := record["name"].(string)
		description, _ := record["description"].(string)
		effect, _ := record["effect"].(string)
		rule, ok := record["rules"].(map[string]any)
		if !ok {
			rule, _ = record["rule"].(map[string]any)
		}

		if err := sqlStore.Put(ctx, name, description, effect,
			toStrings(record["actions"]), toStrings(record["actors"]), toStrings(record["subjects"]), rule); err != nil {
			return fmt.Errorf("failed to seed policy %q: %w", name, err)
		}
	}
	return nil
}

// loadRecords decodes policyFile's {"policies": [...]} document by
// extension into the generic declarative shape builder expects.
func loadRecords(policyFile string) ([]map[string]any, error) {
	data, err := os.ReadFile(policyFile)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Policies []map[string]any `json:"policies" yaml:"policies"`
	}

	switch {
	case strings.HasSuffix(policyFile, ".yaml"), strings.HasSuffix(policyFile, ".yml"):
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, err
	}
	return doc.Policies, nil
}

func toStrings(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
