// Package hcl provides the concrete HCL implementation for the rule loading
// and data conversion interfaces defined in the `config` package.
// It is responsible for all rule file parsing, HCL-to-model translation, and
// CTY-to-Go data binding. The built-in rule set ships embedded in the binary
// and is always loaded first; user files override rules by ID.
package hcl
