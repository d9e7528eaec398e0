package queryir

import (
	"fmt"
	"regexp"
)

var identPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// reserved output names of ClassItems.
var reserved = map[string]bool{
	"system_id":    true,
	"system_order": true,
}

// Validate checks that a plan is well formed and that every identifier it
// carries is safe to quote into statement text.
//
// Validate is a pure function with no side effects.
func Validate(query Query) error {
	switch q := query.(type) {
	case nil:
		return fmt.Errorf("nil query")
	case ClassItems:
		return validateClassItems(q)
	case *ClassItems:
		if q == nil {
			return fmt.Errorf("nil query")
		}
		return validateClassItems(*q)
	case CountItems:
		return validateIdent("table", q.Table)
	case *CountItems:
		if q == nil {
			return fmt.Errorf("nil query")
		}
		return validateIdent("table", q.Table)
	default:
		return fmt.Errorf("unsupported query type: %T", query)
	}
}

func validateClassItems(q ClassItems) error {
	if err := validateIdent("table", q.Table); err != nil {
		return err
	}
	if q.Limit < 0 {
		return fmt.Errorf("negative limit %d", q.Limit)
	}
	if q.Offset < 0 {
		return fmt.Errorf("negative offset %d", q.Offset)
	}
	if q.Offset > 0 && q.Limit == 0 {
		return fmt.Errorf("offset %d without limit", q.Offset)
	}

	seen := make(map[string]bool)
	output := func(name string) error {
		if reserved[name] {
			return fmt.Errorf("output %q is reserved", name)
		}
		if seen[name] {
			return fmt.Errorf("duplicate output %q", name)
		}
		seen[name] = true
		return nil
	}

	for _, col := range q.Columns {
		if err := validateIdent("column", col); err != nil {
			return err
		}
		if err := output(col); err != nil {
			return err
		}
	}

	for _, r := range q.Relations {
		if err := validateIdent("relation alias", r.Alias); err != nil {
			return err
		}
		if err := output(r.Alias); err != nil {
			return err
		}
		for _, s := range r.Sources {
			if err := validateSource(s); err != nil {
				return fmt.Errorf("relation %s: %w", r.Alias, err)
			}
		}
	}
	return nil
}

func validateSource(s Source) error {
	for _, id := range []struct{ what, name string }{
		{"junction", s.Junction},
		{"own column", s.OwnColumn},
		{"target column", s.TargetColumn},
	} {
		if err := validateIdent(id.what, id.name); err != nil {
			return err
		}
	}
	if s.OwnColumn == s.TargetColumn {
		return fmt.Errorf("junction %s: own and target column are both %q", s.Junction, s.OwnColumn)
	}
	if (s.LabelTable == "") != (s.LabelColumn == "") {
		return fmt.Errorf("junction %s: label table and column must be set together", s.Junction)
	}
	if s.HasLabel() {
		if err := validateIdent("label table", s.LabelTable); err != nil {
			return err
		}
		if err := validateIdent("label column", s.LabelColumn); err != nil {
			return err
		}
	}
	return nil
}

func validateIdent(what, name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid %s identifier %q", what, name)
	}
	return nil
}
