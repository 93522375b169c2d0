package memory

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

type fixtureNode struct {
	Type     string `yaml:"type"`
	ID       int64  `yaml:"id"`
	ParentID *int64 `yaml:"parent_id"`
	Name     string `yaml:"name"`
	Title    string `yaml:"title"`
	Active   *bool  `yaml:"active"`
	Order    int    `yaml:"order"`
}

type fixtureDocument struct {
	Title             string   `yaml:"title"`
	Description       string   `yaml:"description"`
	Filename          string   `yaml:"filename"`
	FileSize          int64    `yaml:"file_size"`
	Tags              []string `yaml:"tags"`
	ProcessTypeID     *int64   `yaml:"process_type_id"`
	GeneralProcessID  *int64   `yaml:"general_process_id"`
	InternalProcessID *int64   `yaml:"internal_process_id"`
	CategoryID        *int64   `yaml:"category_id"`
	DocumentDate      string   `yaml:"document_date"`
	ValidUntil        string   `yaml:"valid_until"`
	Confidentiality   string   `yaml:"confidentiality"`
	UploadedBy        string   `yaml:"uploaded_by"`
}

type fixtureFile struct {
	Nodes     []fixtureNode     `yaml:"nodes"`
	Documents []fixtureDocument `yaml:"documents"`
}

// LoadFixturesFile seeds the catalog from a YAML file. Nodes must be listed
// parents first.
func (c *Catalog) LoadFixturesFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return c.LoadFixtures(ctx, f)
}

func (c *Catalog) LoadFixtures(ctx context.Context, r io.Reader) error {
	var file fixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return fmt.Errorf("parse fixtures: %w", err)
	}

	for i, n := range file.Nodes {
		nodeType, ok := domain.ParseNodeType(n.Type)
		if !ok {
			return fmt.Errorf("fixture node %d: unknown type %q", i, n.Type)
		}
		active := true
		if n.Active != nil {
			active = *n.Active
		}
		err := c.AddNode(domain.Node{
			Type:     nodeType,
			ID:       n.ID,
			ParentID: n.ParentID,
			Name:     n.Name,
			Title:    n.Title,
			Active:   active,
			Order:    n.Order,
		})
		if err != nil {
			return fmt.Errorf("fixture node %d: %w", i, err)
		}
	}

	now := time.Now().UTC()
	for i, d := range file.Documents {
		doc := &domain.Document{
			Title:             d.Title,
			Description:       d.Description,
			FileSize:          d.FileSize,
			Tags:              domain.NormalizeTags(d.Tags),
			ProcessTypeID:     d.ProcessTypeID,
			GeneralProcessID:  d.GeneralProcessID,
			InternalProcessID: d.InternalProcessID,
			CategoryID:        d.CategoryID,
			Confidentiality:   domain.ConfidentialityInternal,
			UploadedBy:        d.UploadedBy,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		doc.SetFilename(d.Filename)
		if d.Confidentiality != "" {
			level, ok := domain.ParseConfidentiality(d.Confidentiality)
			if !ok {
				return fmt.Errorf("fixture document %d: unknown confidentiality %q", i, d.Confidentiality)
			}
			doc.Confidentiality = level
		}
		var err error
		if doc.DocumentDate, err = parseFixtureDate(d.DocumentDate); err != nil {
			return fmt.Errorf("fixture document %d: %w", i, err)
		}
		if doc.ValidUntil, err = parseFixtureDate(d.ValidUntil); err != nil {
			return fmt.Errorf("fixture document %d: %w", i, err)
		}
		if err := c.Create(ctx, doc); err != nil {
			return fmt.Errorf("fixture document %d: %w", i, err)
		}
	}
	return nil
}

func parseFixtureDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("date %q: %w", raw, err)
	}
	return &t, nil
}
