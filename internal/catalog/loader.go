package catalog

import (
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/dispatch/internal/dispatch"
	"github.com/zjrosen/dispatch/internal/log"
)

// TableFile is the root structure for a dispatch table YAML file.
type TableFile struct {
	Tables []TableDef `yaml:"tables"`
}

// TableDef binds one dispatch key to its ordered entries.
type TableDef struct {
	Key     string     `yaml:"key"`
	Entries []EntryDef `yaml:"entries"`
}

// EntryDef declares one registration: positional constraint names, the
// implementation to bind, and optional metadata.
type EntryDef struct {
	Impl        string         `yaml:"impl"`
	Constraints []string       `yaml:"constraints"`
	Override    bool           `yaml:"override"`
	Metadata    map[string]any `yaml:"metadata"`
}

// Load reads every *.yaml table under dir in fsys and registers its entries
// into reg. Files are processed in lexical walk order; entries within a file
// register top to bottom, so YAML order is registration order.
func Load(fsys fs.FS, dir string, reg *dispatch.Registry) error {
	loaded := 0
	err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(d.Name()) {
			return nil
		}

		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		var file TableFile
		if err := yaml.Unmarshal(content, &file); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		for _, table := range file.Tables {
			if err := registerTable(reg, table); err != nil {
				return fmt.Errorf("table %s in %s: %w", table.Key, path, err)
			}
			loaded++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan dispatch tables: %w", err)
	}
	if loaded == 0 {
		return fmt.Errorf("no dispatch tables found under %s", dir)
	}

	log.Info(log.CatCatalog, "loaded dispatch tables", "dir", dir, "tables", loaded)
	return nil
}

// LoadBuiltin registers the shipped shapes tables into reg.
func LoadBuiltin(reg *dispatch.Registry) error {
	return Load(builtinTables, "tables", reg)
}

// LoadFile registers the tables from a single YAML file on disk, typically a
// user-supplied table named in the config.
func LoadFile(path string, reg *dispatch.Registry) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var file TableFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if len(file.Tables) == 0 {
		return fmt.Errorf("no dispatch tables found in %s", path)
	}

	for _, table := range file.Tables {
		if err := registerTable(reg, table); err != nil {
			return fmt.Errorf("table %s in %s: %w", table.Key, path, err)
		}
	}

	log.Info(log.CatCatalog, "loaded dispatch table file", "path", path, "tables", len(file.Tables))
	return nil
}

func isYAML(name string) bool {
	if len(name) < 6 {
		return false
	}
	return name[len(name)-5:] == ".yaml"
}

func registerTable(reg *dispatch.Registry, table TableDef) error {
	if table.Key == "" {
		return fmt.Errorf("table key must not be empty")
	}

	for i, def := range table.Entries {
		sig, err := buildSignature(def.Constraints)
		if err != nil {
			return fmt.Errorf("entry %d (%s): %w", i, def.Impl, err)
		}

		fn, ok := implRefs[def.Impl]
		if !ok {
			return fmt.Errorf("entry %d: unknown implementation %q", i, def.Impl)
		}

		opts := []dispatch.RegisterOption{}
		if def.Override {
			opts = append(opts, dispatch.Override())
		}
		if len(def.Metadata) > 0 {
			opts = append(opts, dispatch.WithMetadata(def.Metadata))
		}

		if _, err := reg.Register(dispatch.Key(table.Key), sig, fn, opts...); err != nil {
			return fmt.Errorf("entry %d (%s): %w", i, def.Impl, err)
		}
	}
	return nil
}

func buildSignature(names []string) (dispatch.Signature, error) {
	constraints := make([]dispatch.Constraint, len(names))
	for i, name := range names {
		c, ok := constraintRefs[name]
		if !ok {
			return nil, fmt.Errorf("unknown constraint %q at position %d", name, i)
		}
		constraints[i] = c
	}
	return dispatch.Sig(constraints...), nil
}
