package components

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/annel0/neonite-mod/internal/host"
)

//go:embed schema/item.schema.json
var itemSchemaJSON string

var (
	schemaOnce sync.Once
	itemSchema *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		itemSchema, schemaErr = jsonschema.CompileString("item.schema.json", itemSchemaJSON)
	})
	return itemSchema, schemaErr
}

// Cooldown категория и длительность кулдауна предмета
type Cooldown struct {
	Category      string `json:"category"`
	DurationTicks int    `json:"duration_ticks"`
}

// Definition описание предмета: свойства и привязанные компоненты с параметрами
type Definition struct {
	ID            string                     `json:"id"`
	MaxStack      int                        `json:"max_stack,omitempty"`
	MaxDurability int                        `json:"max_durability,omitempty"`
	Cooldown      *Cooldown                  `json:"cooldown,omitempty"`
	Components    map[string]json.RawMessage `json:"components,omitempty"`
}

type definitionFile struct {
	FormatVersion string     `json:"format_version"`
	Item          Definition `json:"item"`
}

// NewStack создаёт стопку из одного предмета с параметрами из описания
func (d Definition) NewStack() host.ItemStack {
	s := host.NewItem(d.ID)
	s.MaxDurability = d.MaxDurability
	if d.Cooldown != nil {
		s.Cooldown = d.Cooldown.Category
		s.CooldownTicks = d.Cooldown.DurationTicks
	}
	return s
}

// ComponentNames имена компонентов в алфавитном порядке
func (d Definition) ComponentNames() []string {
	names := make([]string, 0, len(d.Components))
	for name := range d.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseDefinition проверяет документ по схеме и разбирает его
func ParseDefinition(data []byte) (Definition, error) {
	schema, err := compiledSchema()
	if err != nil {
		return Definition{}, fmt.Errorf("схема предметов: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Definition{}, fmt.Errorf("некорректный JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return Definition{}, fmt.Errorf("не соответствует схеме: %w", err)
	}

	var file definitionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Definition{}, err
	}
	return file.Item, nil
}

// LoadDefinitions читает все *.json из каталога. Ошибка в любом файле прерывает загрузку.
func LoadDefinitions(dir string) ([]Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("каталог предметов %s: %w", dir, err)
	}

	var defs []Definition
	seen := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		def, err := ParseDefinition(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if prev, dup := seen[def.ID]; dup {
			return nil, fmt.Errorf("%s: предмет %s уже описан в %s", path, def.ID, prev)
		}
		seen[def.ID] = path
		defs = append(defs, def)
	}
	return defs, nil
}
