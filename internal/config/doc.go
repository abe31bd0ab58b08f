// Package config defines the declarative batch request, its documented
// defaults, and request-level validation.
//
// A batch request is loaded once at the CLI boundary from a YAML file,
// defaults are merged, and the validated result is passed immutably into
// the orchestrator. Timeout and retry tuning lives in environment variables
// so it can be adjusted per invocation without touching the request file.
package config
