package model

import (
	"fmt"

	"github.com/alecthomas/kong"
)

// VersionFlag prints the version banner and exits before any command runs.
type VersionFlag string

// Decode implements kong.MapperValue; the flag carries no value.
func (v VersionFlag) Decode(_ *kong.DecodeContext) error { return nil }

// IsBool marks the flag as boolean so kong accepts it bare.
func (v VersionFlag) IsBool() bool { return true }

// BeforeApply prints the banner from the "version" var and exits.
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}
