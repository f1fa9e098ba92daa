package rules

// DefaultSpecs returns the built-in rule table.
func DefaultSpecs() []Spec {
	return []Spec{
		// Dangerous functions
		{Name: "Dangerous Eval", Pattern: `eval\(`, Severity: "HIGH"},
		{Name: "Dangerous Exec", Pattern: `exec\(`, Severity: "HIGH"},
		{Name: "System Command", Pattern: `system\(`, Severity: "HIGH"},

		// Secrets / API keys
		{Name: "AWS Access Key", Pattern: `AKIA[0-9A-Z]{16}`, Severity: "CRITICAL"},
		{Name: "Generic API Key", Pattern: `api_key\s*=\s*['"][a-zA-Z0-9]{20,}['"]`, Severity: "HIGH"},
		{Name: "Hardcoded Password", Pattern: `password\s*=\s*['"][a-zA-Z0-9@#$%]{6,}['"]`, Severity: "MEDIUM"},
	}
}

var defaultSet = mustCompile(DefaultSpecs())

// Default returns the compiled built-in rule set.
func Default() Set { return defaultSet }

func mustCompile(specs []Spec) Set {
	s, err := Compile(specs)
	if err != nil {
		panic(err)
	}
	return s
}
