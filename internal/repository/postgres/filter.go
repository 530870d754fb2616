package postgres

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aidar/task-tracker/internal/domain"
	"github.com/aidar/task-tracker/internal/query"
)

// fieldSpec связывает имя поля документа с SQL колонкой и необязательным
// преобразованием значения фильтра
type fieldSpec struct {
	column  string
	convert func(any) (any, error)
}

// Белые списки фильтруемых/сортируемых полей. pendingTasks отсутствует
// намеренно: это агрегат по таблице pending_tasks, а не колонка.
var taskFields = map[string]fieldSpec{
	"id":               {column: "t.id", convert: uuidValue},
	"name":             {column: "t.name"},
	"description":      {column: "t.description"},
	"deadline":         {column: "t.deadline", convert: timeValue},
	"completed":        {column: "t.completed"},
	"assignedUser":     {column: "t.assigned_user", convert: assigneeValue},
	"assignedUserName": {column: "t.assigned_user_name"},
	"createdAt":        {column: "t.created_at", convert: timeValue},
	"revision":         {column: "t.revision"},
}

var userFields = map[string]fieldSpec{
	"id":        {column: "u.id", convert: uuidValue},
	"name":      {column: "u.name"},
	"email":     {column: "u.email"},
	"createdAt": {column: "u.created_at", convert: timeValue},
	"revision":  {column: "u.revision"},
}

var comparisonOps = map[string]string{
	"$gt":  ">",
	"$gte": ">=",
	"$lt":  "<",
	"$lte": "<=",
}

func errInvalidWhere() error {
	return domain.NewInvalidQueryParameter("where")
}

// whereBuilder накапливает позиционные аргументы при компиляции фильтра
type whereBuilder struct {
	args []any
}

func (b *whereBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// buildWhere компилирует фильтр дескриптора в SQL условие. Неизвестное поле
// или оператор — ошибка InvalidQueryParameter, а не пустой результат.
func buildWhere(filter map[string]any, fields map[string]fieldSpec) (string, []any, error) {
	b := &whereBuilder{}
	cond, err := b.compile(filter, fields)
	if err != nil {
		return "", nil, err
	}
	return cond, b.args, nil
}

func (b *whereBuilder) compile(filter map[string]any, fields map[string]fieldSpec) (string, error) {
	if len(filter) == 0 {
		return "TRUE", nil
	}

	// Стабильный порядок обхода, чтобы SQL был детерминированным
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	for _, key := range keys {
		switch key {
		case "$and", "$or":
			cond, err := b.compileLogical(key, filter[key], fields)
			if err != nil {
				return "", err
			}
			conds = append(conds, cond)
		default:
			spec, ok := fields[key]
			if !ok {
				return "", errInvalidWhere()
			}
			cond, err := b.compileField(spec, filter[key])
			if err != nil {
				return "", err
			}
			conds = append(conds, cond)
		}
	}
	return strings.Join(conds, " AND "), nil
}

func (b *whereBuilder) compileLogical(op string, value any, fields map[string]fieldSpec) (string, error) {
	list, ok := value.([]any)
	if !ok || len(list) == 0 {
		return "", errInvalidWhere()
	}

	joiner := " AND "
	if op == "$or" {
		joiner = " OR "
	}

	subs := make([]string, 0, len(list))
	for _, item := range list {
		sub, ok := item.(map[string]any)
		if !ok {
			return "", errInvalidWhere()
		}
		cond, err := b.compile(sub, fields)
		if err != nil {
			return "", err
		}
		subs = append(subs, "("+cond+")")
	}
	return "(" + strings.Join(subs, joiner) + ")", nil
}

func (b *whereBuilder) compileField(spec fieldSpec, value any) (string, error) {
	if ops, ok := value.(map[string]any); ok {
		return b.compileOperators(spec, ops)
	}
	return b.compileEquality(spec, value)
}

func (b *whereBuilder) compileEquality(spec fieldSpec, value any) (string, error) {
	v, err := convertValue(spec, value)
	if err != nil {
		return "", err
	}
	if v == nil {
		return spec.column + " IS NULL", nil
	}
	return spec.column + " = " + b.bind(v), nil
}

func (b *whereBuilder) compileOperators(spec fieldSpec, ops map[string]any) (string, error) {
	if len(ops) == 0 {
		return "", errInvalidWhere()
	}

	keys := make([]string, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	for _, op := range keys {
		value := ops[op]
		switch {
		case op == "$eq":
			cond, err := b.compileEquality(spec, value)
			if err != nil {
				return "", err
			}
			conds = append(conds, cond)

		case op == "$ne":
			v, err := convertValue(spec, value)
			if err != nil {
				return "", err
			}
			if v == nil {
				conds = append(conds, spec.column+" IS NOT NULL")
			} else {
				conds = append(conds, spec.column+" <> "+b.bind(v))
			}

		case comparisonOps[op] != "":
			v, err := convertValue(spec, value)
			if err != nil || v == nil {
				return "", errInvalidWhere()
			}
			conds = append(conds, spec.column+" "+comparisonOps[op]+" "+b.bind(v))

		case op == "$in" || op == "$nin":
			cond, err := b.compileMembership(spec, op, value)
			if err != nil {
				return "", err
			}
			conds = append(conds, cond)

		default:
			return "", errInvalidWhere()
		}
	}
	return strings.Join(conds, " AND "), nil
}

func (b *whereBuilder) compileMembership(spec fieldSpec, op string, value any) (string, error) {
	list, ok := value.([]any)
	if !ok {
		return "", errInvalidWhere()
	}
	// Пустой $in не совпадает ни с чем, пустой $nin совпадает со всем
	if len(list) == 0 {
		if op == "$in" {
			return "FALSE", nil
		}
		return "TRUE", nil
	}

	placeholders := make([]string, 0, len(list))
	for _, item := range list {
		v, err := convertValue(spec, item)
		if err != nil || v == nil {
			return "", errInvalidWhere()
		}
		placeholders = append(placeholders, b.bind(v))
	}

	cond := spec.column + " IN (" + strings.Join(placeholders, ", ") + ")"
	if op == "$nin" {
		cond = "NOT (" + cond + ")"
	}
	return cond, nil
}

// buildOrderBy компилирует спецификацию сортировки в ORDER BY выражение
func buildOrderBy(fields []query.SortField, specs map[string]fieldSpec) (string, error) {
	if len(fields) == 0 {
		return "", nil
	}
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		spec, ok := specs[f.Field]
		if !ok {
			return "", domain.NewInvalidQueryParameter("sort")
		}
		term := spec.column
		if f.Desc {
			term += " DESC"
		}
		terms = append(terms, term)
	}
	return " ORDER BY " + strings.Join(terms, ", "), nil
}

func convertValue(spec fieldSpec, value any) (any, error) {
	if spec.convert == nil {
		switch value.(type) {
		case nil, bool, float64, string:
			return value, nil
		default:
			return nil, errInvalidWhere()
		}
	}
	return spec.convert(value)
}

func uuidValue(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, errInvalidWhere()
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, errInvalidWhere()
	}
	return id, nil
}

// assigneeValue трактует пустую строку как отсутствие исполнителя (IS NULL)
func assigneeValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, errInvalidWhere()
	}
	if s == "" {
		return nil, nil
	}
	return uuidValue(s)
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

func timeValue(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, errInvalidWhere()
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return nil, errInvalidWhere()
}
