package reports

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// fieldIndexCache caches field indexes per struct type
var fieldIndexCache sync.Map

// RowBuilder turns a slice of structs into formatted string rows.
type RowBuilder struct {
	fields []FieldConfig
}

// FieldConfig names a struct field, by Go name or json tag, and its formatter.
type FieldConfig struct {
	Field     string
	Formatter Formatter
}

func NewRowBuilder() *RowBuilder {
	return &RowBuilder{}
}

// Add appends a column. A nil formatter prints the value as-is.
func (b *RowBuilder) Add(field string, formatter Formatter) *RowBuilder {
	if formatter == nil {
		formatter = &OriginalFormatter{}
	}
	b.fields = append(b.fields, FieldConfig{Field: field, Formatter: formatter})
	return b
}

func getFieldIndexes(t reflect.Type) map[string]int {
	if cached, ok := fieldIndexCache.Load(t); ok {
		return cached.(map[string]int)
	}

	indexes := make(map[string]int)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		indexes[field.Name] = i
		if tag := field.Tag.Get("json"); tag != "" {
			name, _, _ := strings.Cut(tag, ",")
			if name != "" && name != "-" {
				indexes[name] = i
			}
		}
	}

	fieldIndexCache.Store(t, indexes)
	return indexes
}

// Build formats every element of data, which must be a slice of structs or struct pointers.
// Nil elements produce empty rows. A formatter error falls back to the plain value.
func (b *RowBuilder) Build(data any) ([][]string, error) {
	slice := reflect.ValueOf(data)
	if slice.Kind() != reflect.Slice {
		return nil, fmt.Errorf("data must be a slice")
	}

	itemType := slice.Type().Elem()
	if itemType.Kind() == reflect.Ptr {
		itemType = itemType.Elem()
	}
	if itemType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("data must be a slice of structs, got %s", itemType)
	}
	indexes := getFieldIndexes(itemType)

	columns := make([]int, len(b.fields))
	for i, field := range b.fields {
		idx, ok := indexes[field.Field]
		if !ok {
			return nil, fmt.Errorf("field %s not found", field.Field)
		}
		columns[i] = idx
	}

	rows := make([][]string, 0, slice.Len())
	for i := 0; i < slice.Len(); i++ {
		item := slice.Index(i)
		row := make([]string, len(b.fields))
		if item.Kind() == reflect.Ptr {
			if item.IsNil() {
				rows = append(rows, row)
				continue
			}
			item = item.Elem()
		}

		for j, field := range b.fields {
			value := item.Field(columns[j]).Interface()
			formatted, err := field.Formatter.Format(value)
			if err != nil {
				formatted = fmt.Sprintf("%v", value)
			}
			row[j] = formatted
		}
		rows = append(rows, row)
	}

	return rows, nil
}
