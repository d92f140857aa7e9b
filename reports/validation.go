package reports

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"teamreports/models"
	"teamreports/utils"
)

// ValidationError carries every field problem found in one submission.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Message: message, Fields: map[string]string{field: message}}
}

// Dates are ISO-8601: a calendar date or a full RFC 3339 timestamp.
var dateTag = "datetime=2006-01-02|datetime=" + time.RFC3339

// ValidateAnswers checks answers against every field of tpl and returns all
// violations keyed by field id. An empty map means the answers are valid.
func ValidateAnswers(tpl *models.Template, answers models.Answers) map[string]string {
	errs := map[string]string{}
	for _, f := range tpl.Fields {
		raw := strings.TrimSpace(answers.Get(f.ID).String())
		if !utils.CheckVar(raw, "required") {
			if f.Required {
				errs[f.ID] = fmt.Sprintf("%s is required", f.Label)
			}
			continue
		}

		switch f.Type {
		case models.FieldNumber:
			if msg := checkNumber(f, raw); msg != "" {
				errs[f.ID] = msg
			}
		case models.FieldDate:
			if !utils.CheckVar(raw, dateTag) {
				errs[f.ID] = fmt.Sprintf("%s must be a date (YYYY-MM-DD)", f.Label)
			}
		case models.FieldSelect:
			if len(f.Options) > 0 && !utils.CheckVar(raw, utils.OneOfTag(f.Options)) {
				errs[f.ID] = fmt.Sprintf("%s must be one of: %s", f.Label, strings.Join(f.Options, ", "))
			}
		}
	}
	return errs
}

// checkNumber accepts plain decimal text only, then applies the field bounds.
func checkNumber(f models.TemplateField, raw string) string {
	if !utils.CheckVar(raw, "numeric") {
		return fmt.Sprintf("%s must be a number", f.Label)
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Sprintf("%s must be a number", f.Label)
	}
	if f.Validation == nil {
		return ""
	}
	if lo := f.Validation.Min; lo != nil && !utils.CheckVar(n, fmt.Sprintf("gte=%g", *lo)) {
		return fmt.Sprintf("%s must be at least %g", f.Label, *lo)
	}
	if hi := f.Validation.Max; hi != nil && !utils.CheckVar(n, fmt.Sprintf("lte=%g", *hi)) {
		return fmt.Sprintf("%s must be at most %g", f.Label, *hi)
	}
	return ""
}

// validateLegacy applies the template-less shape: title, description and
// category are required; priority and status must be known values.
func validateLegacy(sub *Submission) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(sub.Title) == "" {
		errs["title"] = "Title is required"
	}
	if strings.TrimSpace(sub.Description) == "" {
		errs["description"] = "Description is required"
	}
	if strings.TrimSpace(sub.Category) == "" {
		errs["category"] = "Category is required"
	}
	if sub.Priority != "" && !utils.CheckVar(sub.Priority, utils.OneOfTag(models.Priorities)) {
		errs["priority"] = "Priority must be one of: " + strings.Join(models.Priorities, ", ")
	}
	if sub.Status != "" && !utils.CheckVar(sub.Status, utils.OneOfTag(models.Statuses)) {
		errs["status"] = "Status must be one of: " + strings.Join(models.Statuses, ", ")
	}
	return errs
}
