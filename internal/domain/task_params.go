package domain

import "fmt"

// Required/allowed parameter validation for each task kind, per spec §4.F.
// Parsing happens once at submit time; an unknown kind or a missing
// required param fails the whole submission with a SubmitError (spec §8,
// "Submitting a prune task with no retention param").

// ValidateTaskParams checks that params carries what the given kind
// requires, returning a SubmitError describing the first problem found.
func ValidateTaskParams(kind TaskKind, params map[string]any) error {
	switch kind {
	case TaskBackup:
		return requireStrings(params, "source_path", "compression")
	case TaskPrune:
		return validatePruneParams(params)
	case TaskCheck:
		return requireStrings(params, "check_type")
	case TaskCloudSync:
		return requireStrings(params, "cloud_sync_config_id")
	case TaskNotification:
		if err := requireStrings(params, "notification_config_id"); err != nil {
			return err
		}
		return requireBools(params, "notify_on_success", "notify_on_failure")
	default:
		return NewSubmitError(fmt.Sprintf("unknown task kind %q", kind))
	}
}

func validatePruneParams(params map[string]any) error {
	if _, ok := params["keep_within_days"]; ok {
		return nil
	}
	for _, key := range []string{"keep_daily", "keep_weekly", "keep_monthly", "keep_yearly"} {
		if _, ok := params[key]; ok {
			return nil
		}
	}
	return NewSubmitError("prune task requires keep_within_days or at least one keep_* retention param")
}

func requireStrings(params map[string]any, keys ...string) error {
	for _, k := range keys {
		v, ok := params[k]
		if !ok {
			return NewSubmitError(fmt.Sprintf("missing required param %q", k))
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return NewSubmitError(fmt.Sprintf("param %q must be a non-empty string", k))
		}
	}
	return nil
}

func requireBools(params map[string]any, keys ...string) error {
	for _, k := range keys {
		v, ok := params[k]
		if !ok {
			return NewSubmitError(fmt.Sprintf("missing required param %q", k))
		}
		if _, ok := v.(bool); !ok {
			return NewSubmitError(fmt.Sprintf("param %q must be a boolean", k))
		}
	}
	return nil
}
